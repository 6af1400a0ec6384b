package tui

import (
	"github.com/mmcdole/medbook/internal/appointment"
	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/notification"
	"github.com/mmcdole/medbook/internal/query"
)

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	msg := domain.UserMessage(e.Err)
	if e.Context != "" {
		return e.Context + ": " + msg
	}
	return msg
}

// TabLoadedMsg carries one page of a list tab
type TabLoadedMsg struct {
	Tab  appointment.Tab
	Page int
	Data appointment.Page
}

// CountsLoadedMsg carries the per-status totals shown in the tab bar
type CountsLoadedMsg struct {
	Counts map[domain.AppointmentStatus]int
}

// NotificationsLoadedMsg carries one page of notifications
type NotificationsLoadedMsg struct {
	Data notification.Page
}

// UnreadChangedMsg is sent whenever the polled unread badge changes
type UnreadChangedMsg struct {
	State query.State[int]
}

// SessionExpiredMsg is sent when the server rejects the session token
type SessionExpiredMsg struct{}

// ActionDoneMsg reports a completed mutation
type ActionDoneMsg struct {
	Status string
}
