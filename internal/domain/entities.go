package domain

import (
	"strings"
	"time"
)

// AppointmentStatus is the lifecycle state of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusRejected  AppointmentStatus = "REJECTED"
	StatusCompleted AppointmentStatus = "COMPLETED"
)

// BookingType distinguishes in-person visits from remote consultations
type BookingType string

const (
	BookingVisit  BookingType = "VISIT"
	BookingOnline BookingType = "ONLINE"
)

// PaymentStatus tracks payment for appointments and orders
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Role identifies what a user can do
type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
	RoleAdmin   Role = "ADMIN"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// UserSummary is the embedded participant shape returned alongside appointments and chats
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// User is an account as seen by the admin panel and /auth/me
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// Appointment is a booking between a patient and a doctor
type Appointment struct {
	ID              string            `json:"id"`
	DoctorID        string            `json:"doctorId"`
	PatientID       string            `json:"patientId"`
	Doctor          *UserSummary      `json:"doctor,omitempty"`
	Patient         *UserSummary      `json:"patient,omitempty"`
	AppointmentDate string            `json:"appointmentDate"` // YYYY-MM-DD
	AppointmentTime string            `json:"appointmentTime"` // HH:MM
	BookingType     BookingType       `json:"bookingType"`
	Status          AppointmentStatus `json:"status"`
	PaymentStatus   PaymentStatus     `json:"paymentStatus,omitempty"`
	PaymentMethod   string            `json:"paymentMethod,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	Reason          string            `json:"reason,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// ScheduledAt combines the date and time fields. Unparseable values yield the zero time.
func (a Appointment) ScheduledAt() time.Time {
	if a.AppointmentTime != "" {
		if t, err := time.Parse(dateTimeLayout, a.AppointmentDate+" "+a.AppointmentTime); err == nil {
			return t
		}
	}
	t, _ := time.Parse(dateLayout, a.AppointmentDate)
	return t
}

// DoctorName returns the embedded doctor's name, falling back to the ID
func (a Appointment) DoctorName() string {
	if a.Doctor != nil && a.Doctor.Name != "" {
		return a.Doctor.Name
	}
	return a.DoctorID
}

// PatientName returns the embedded patient's name, falling back to the ID
func (a Appointment) PatientName() string {
	if a.Patient != nil && a.Patient.Name != "" {
		return a.Patient.Name
	}
	return a.PatientID
}

// IsUpcoming reports whether the appointment still needs to happen
func (a Appointment) IsUpcoming() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}

// OrderItem is one line of a pharmacy order
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price,omitempty"`
}

// OrderStatus is the fulfilment state of an order
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// Order is a pharmacy purchase
type Order struct {
	ID              string        `json:"id"`
	PatientID       string        `json:"patientId"`
	Items           []OrderItem   `json:"items"`
	Subtotal        float64       `json:"subtotal"`
	ShippingFee     float64       `json:"shippingFee"`
	Total           float64       `json:"total"`
	Status          OrderStatus   `json:"status"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	PaymentMethod   string        `json:"paymentMethod,omitempty"`
	ShippingAddress string        `json:"shippingAddress,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// Product is a pharmacy catalogue entry
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
}

// InStock reports whether at least qty units are available
func (p Product) InStock(qty int) bool {
	return p.Stock >= qty
}

// Doctor is a directory entry / profile
type Doctor struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Email          string   `json:"email,omitempty"`
	Specialty      string   `json:"specialty"`
	Bio            string   `json:"bio,omitempty"`
	Fee            float64  `json:"fee"`
	Rating         float64  `json:"rating"`
	AvailableDays  []string `json:"availableDays,omitempty"`
	AvailableHours []string `json:"availableHours,omitempty"`
}

// Notification is an in-app message for the current user
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Conversation is a chat thread between a patient and a doctor
type Conversation struct {
	ID           string        `json:"id"`
	Participants []UserSummary `json:"participants"`
	LastMessage  string        `json:"lastMessage,omitempty"`
	UnreadCount  int           `json:"unreadCount"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Title joins the participants' names
func (c Conversation) Title() string {
	names := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

// ChatMessage is one message in a conversation
type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AdminStats is the dashboard summary for the admin panel
type AdminStats struct {
	Users        int     `json:"users"`
	Doctors      int     `json:"doctors"`
	Patients     int     `json:"patients"`
	Appointments int     `json:"appointments"`
	Orders       int     `json:"orders"`
	Revenue      float64 `json:"revenue"`
}
