// Package resource names the server-side resources and builds every cache key
// that reads them. Views and services must build keys here and nowhere else so
// the dependency table stays complete.
package resource

import (
	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/query"
)

// Resources a mutation can change
const (
	Appointments  query.Resource = "appointments"
	Orders        query.Resource = "orders"
	Products      query.Resource = "products"
	Notifications query.Resource = "notifications"
	Doctors       query.Resource = "doctors"
	Chat          query.Resource = "chat"
	Users         query.Resource = "users"
)

// All lists every resource
var All = []query.Resource{Appointments, Orders, Products, Notifications, Doctors, Chat, Users}

// AppointmentsKey is the caller's own appointment list
func AppointmentsKey(f domain.AppointmentFilter) query.Key {
	return query.K("appointments", f)
}

// AppointmentKey is one appointment
func AppointmentKey(id string) query.Key {
	return query.K("appointment", id)
}

// AdminAppointmentsKey is the admin panel's list of every appointment
func AdminAppointmentsKey(f domain.AppointmentFilter) query.Key {
	return query.K("admin", "appointments", f)
}

// PatientAppointmentsKey is a patient's appointment history as seen by staff
func PatientAppointmentsKey(patientID string, f domain.AppointmentFilter) query.Key {
	return query.K("patient", "appointments", patientID, f)
}

// DoctorAppointmentsKey is a doctor's schedule
func DoctorAppointmentsKey(doctorID string, f domain.AppointmentFilter) query.Key {
	return query.K("doctor", "appointments", doctorID, f)
}

// OrdersKey is the caller's order list
func OrdersKey(f domain.OrderFilter) query.Key {
	return query.K("orders", f)
}

// OrderKey is one order
func OrderKey(id string) query.Key {
	return query.K("order", id)
}

// ProductsKey is one page of the catalogue
func ProductsKey(f domain.ListFilter) query.Key {
	return query.K("products", "list", f)
}

// ProductKey is one product
func ProductKey(id string) query.Key {
	return query.K("products", "detail", id)
}

// DoctorsKey is one page of the directory
func DoctorsKey(f domain.ListFilter) query.Key {
	return query.K("doctors", "list", f)
}

// DoctorKey is one doctor profile
func DoctorKey(id string) query.Key {
	return query.K("doctors", "profile", id)
}

// NotificationsKey is one page of notifications
func NotificationsKey(page, limit int) query.Key {
	return query.K("notifications", "list", page, limit)
}

// UnreadCountKey is the polled unread badge
func UnreadCountKey() query.Key {
	return query.K("notifications", "unread")
}

// ConversationsKey is the chat thread list
func ConversationsKey() query.Key {
	return query.K("chat", "conversations")
}

// MessagesKey is one thread's messages
func MessagesKey(conversationID string) query.Key {
	return query.K("chat", "messages", conversationID)
}

// AdminStatsKey is the dashboard summary
func AdminStatsKey() query.Key {
	return query.K("admin", "stats")
}

// AdminUsersKey is one page of accounts
func AdminUsersKey(f domain.ListFilter) query.Key {
	return query.K("admin", "users", f)
}

// CurrentUserKey is /auth/me
func CurrentUserKey() query.Key {
	return query.K("me")
}
