package resource

import (
	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/query"
)

// Dependencies maps each resource to every key prefix that can hold its data.
// Admin stats aggregate appointments, orders and users, so they appear under each.
func Dependencies() query.Dependencies {
	return query.Dependencies{
		Appointments: {
			query.K("appointments"),
			query.K("appointment"),
			query.K("admin", "appointments"),
			query.K("patient", "appointments"),
			query.K("doctor", "appointments"),
			query.K("admin", "stats"),
		},
		Orders: {
			query.K("orders"),
			query.K("order"),
			query.K("admin", "stats"),
			// stock levels change when an order is placed or cancelled
			query.K("products"),
		},
		Products: {
			query.K("products"),
		},
		Notifications: {
			query.K("notifications"),
		},
		Doctors: {
			query.K("doctors"),
		},
		Chat: {
			query.K("chat"),
		},
		Users: {
			query.K("admin", "users"),
			query.K("admin", "stats"),
			query.K("doctors"),
			query.K("me"),
		},
	}
}

// Registration records which resources a key builder reads
type Registration struct {
	Name  string
	Key   query.Key
	Reads []query.Resource
}

// Registry returns a sample key from every builder with the resources it reads
func Registry() []Registration {
	af := domain.AppointmentFilter{Status: domain.StatusPending, Page: 1, Limit: domain.DefaultPageLimit}
	lf := domain.ListFilter{Search: "x", Page: 1}
	return []Registration{
		{"appointments", AppointmentsKey(af), []query.Resource{Appointments}},
		{"appointment", AppointmentKey("a1"), []query.Resource{Appointments}},
		{"admin appointments", AdminAppointmentsKey(af), []query.Resource{Appointments}},
		{"patient appointments", PatientAppointmentsKey("p1", af), []query.Resource{Appointments}},
		{"doctor appointments", DoctorAppointmentsKey("d1", af), []query.Resource{Appointments}},
		{"orders", OrdersKey(domain.OrderFilter{Page: 1}), []query.Resource{Orders}},
		{"order", OrderKey("o1"), []query.Resource{Orders}},
		{"products", ProductsKey(lf), []query.Resource{Products, Orders}},
		{"product", ProductKey("p1"), []query.Resource{Products, Orders}},
		{"doctors", DoctorsKey(lf), []query.Resource{Doctors, Users}},
		{"doctor", DoctorKey("d1"), []query.Resource{Doctors, Users}},
		{"notifications", NotificationsKey(1, 10), []query.Resource{Notifications}},
		{"unread count", UnreadCountKey(), []query.Resource{Notifications}},
		{"conversations", ConversationsKey(), []query.Resource{Chat}},
		{"messages", MessagesKey("c1"), []query.Resource{Chat}},
		{"admin stats", AdminStatsKey(), []query.Resource{Appointments, Orders, Users}},
		{"admin users", AdminUsersKey(lf), []query.Resource{Users}},
		{"current user", CurrentUserKey(), []query.Resource{Users}},
	}
}
