package domain

import (
	"context"
)

// CreateAppointmentInput is the body of POST /appointment
type CreateAppointmentInput struct {
	DoctorID        string      `json:"doctorId"`
	PatientID       string      `json:"patientId"`
	AppointmentDate string      `json:"appointmentDate"`
	AppointmentTime string      `json:"appointmentTime"`
	BookingType     BookingType `json:"bookingType"`
	Notes           string      `json:"notes,omitempty"`
}

// StatusUpdate is the body of PUT /appointment/:id/status. Empty fields are not sent.
type StatusUpdate struct {
	Status        AppointmentStatus `json:"status,omitempty"`
	PaymentStatus PaymentStatus     `json:"paymentStatus,omitempty"`
	PaymentMethod string            `json:"paymentMethod,omitempty"`
	Notes         string            `json:"notes,omitempty"`
}

// CreateOrderInput is the body of POST /orders
type CreateOrderInput struct {
	Items           []OrderItem `json:"items"`
	ShippingAddress string      `json:"shippingAddress,omitempty"`
}

// DoctorProfileUpdate is the body of PUT /doctors/:id
type DoctorProfileUpdate struct {
	Specialty      string   `json:"specialty,omitempty"`
	Bio            string   `json:"bio,omitempty"`
	Fee            float64  `json:"fee,omitempty"`
	AvailableDays  []string `json:"availableDays,omitempty"`
	AvailableHours []string `json:"availableHours,omitempty"`
}

// Credentials is the body of POST /auth/login
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the body of POST /auth/register
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Role     Role   `json:"role"`
}

// AuthResult contains the result of a successful authentication
type AuthResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// AppointmentRepository: network operations on /appointment
type AppointmentRepository interface {
	ListAppointments(ctx context.Context, filter AppointmentFilter) (Page[Appointment], error)
	GetAppointment(ctx context.Context, id string) (*Appointment, error)
	CreateAppointment(ctx context.Context, in CreateAppointmentInput) (*Appointment, error)
	AcceptAppointment(ctx context.Context, id string) (*Appointment, error)
	RejectAppointment(ctx context.Context, id, reason string) (*Appointment, error)
	CancelAppointment(ctx context.Context, id, reason string) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, update StatusUpdate) (*Appointment, error)
}

// OrderRepository: network operations on /orders
type OrderRepository interface {
	ListOrders(ctx context.Context, filter OrderFilter) (Page[Order], error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error)
	PayOrder(ctx context.Context, id, paymentMethod string) (*Order, error)
	SetShippingFee(ctx context.Context, id string, fee float64) (*Order, error)
	CancelOrder(ctx context.Context, id string) (*Order, error)
}

// ProductRepository: network operations on /products
type ProductRepository interface {
	ListProducts(ctx context.Context, filter ListFilter) (Page[Product], error)
	GetProduct(ctx context.Context, id string) (*Product, error)
}

// NotificationRepository: network operations on /notification
type NotificationRepository interface {
	ListNotifications(ctx context.Context, page, limit int) (Page[Notification], error)
	UnreadCount(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error
}

// DoctorRepository: network operations on /doctors
type DoctorRepository interface {
	ListDoctors(ctx context.Context, filter ListFilter) (Page[Doctor], error)
	GetDoctor(ctx context.Context, id string) (*Doctor, error)
	UpdateDoctor(ctx context.Context, id string, update DoctorProfileUpdate) (*Doctor, error)
}

// ChatRepository: network operations on /chat
type ChatRepository interface {
	ListConversations(ctx context.Context) ([]Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]ChatMessage, error)
	SendMessage(ctx context.Context, conversationID, body string) (*ChatMessage, error)
}

// AdminRepository: network operations on /admin
type AdminRepository interface {
	Stats(ctx context.Context) (*AdminStats, error)
	ListUsers(ctx context.Context, filter ListFilter) (Page[User], error)
	ListAllAppointments(ctx context.Context, filter AppointmentFilter) (Page[Appointment], error)
	SetUserActive(ctx context.Context, id string, active bool) (*User, error)
	DeleteUser(ctx context.Context, id string) error
}

// AuthRepository: network operations on /auth
type AuthRepository interface {
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)
	Register(ctx context.Context, reg Registration) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*User, error)
}
