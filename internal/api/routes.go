package api

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/medbook/internal/domain"
)

// Route templates. Segments starting with ':' are filled by Resolve.
const (
	RouteLogin    = "/auth/login"
	RouteRegister = "/auth/register"
	RouteRefresh  = "/auth/refresh"
	RouteLogout   = "/auth/logout"
	RouteMe       = "/auth/me"

	RouteAppointments      = "/appointment"
	RouteAppointment       = "/appointment/:id"
	RouteAppointmentAccept = "/appointment/:id/accept"
	RouteAppointmentReject = "/appointment/:id/reject"
	RouteAppointmentCancel = "/appointment/:id/cancel"
	RouteAppointmentStatus = "/appointment/:id/status"

	RouteOrders        = "/orders"
	RouteOrder         = "/orders/:id"
	RouteOrderPay      = "/orders/:id/pay"
	RouteOrderShipping = "/orders/:id/shipping"
	RouteOrderCancel   = "/orders/:id/cancel"

	RouteNotifications       = "/notification"
	RouteNotification        = "/notification/:id"
	RouteNotificationsUnread = "/notification/unread-count"
	RouteNotificationRead    = "/notification/read/:id"
	RouteNotificationsRead   = "/notification/read-all"

	RouteProducts = "/products"
	RouteProduct  = "/products/:id"

	RouteDoctors = "/doctors"
	RouteDoctor  = "/doctors/:id"

	RouteConversations = "/chat/conversations"
	RouteMessages      = "/chat/:conversationId/messages"

	RouteAdminStats        = "/admin/stats"
	RouteAdminUsers        = "/admin/users"
	RouteAdminUser         = "/admin/users/:id"
	RouteAdminUserStatus   = "/admin/users/:id/status"
	RouteAdminAppointments = "/admin/appointments"
)

// Params fills the ':name' segments of a route template
type Params map[string]string

// Resolve fills a route template. Every placeholder must have a non-empty value;
// values are path-escaped.
func Resolve(template string, params Params) (string, error) {
	if !strings.Contains(template, ":") {
		return template, nil
	}
	segments := strings.Split(template, "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		name := seg[1:]
		value := params[name]
		if value == "" {
			return "", fmt.Errorf("route %s: %s: %w", template, name, domain.ErrMissingParam)
		}
		segments[i] = url.PathEscape(value)
	}
	return strings.Join(segments, "/"), nil
}
