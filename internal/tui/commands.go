package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/medbook/internal/appointment"
	"github.com/mmcdole/medbook/internal/notification"
	"github.com/mmcdole/medbook/internal/query"
)

const requestTimeout = 30 * time.Second

// Command factories for async operations

// LoadTabCmd loads one page of a list tab
func LoadTabCmd(svc *appointment.Service, tab appointment.Tab, page, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		data, err := svc.Tab(ctx, tab, page, limit)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading " + tab.String()}
		}
		return TabLoadedMsg{Tab: tab, Page: page, Data: data}
	}
}

// LoadCountsCmd loads the per-status totals
func LoadCountsCmd(svc *appointment.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		counts, err := svc.StatusCounts(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading counts"}
		}
		return CountsLoadedMsg{Counts: counts}
	}
}

// CancelAppointmentCmd cancels an appointment. The mutation invalidates the
// lists, so the follow-up reload fetches fresh pages.
func CancelAppointmentCmd(svc *appointment.Service, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if _, err := svc.Cancel(ctx, id, "cancelled by patient"); err != nil {
			return ErrMsg{Err: err, Context: "cancelling appointment"}
		}
		return ActionDoneMsg{Status: "Appointment cancelled"}
	}
}

// LoadNotificationsCmd loads the first page of notifications
func LoadNotificationsCmd(svc *notification.Service, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		data, err := svc.List(ctx, 1, limit)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading notifications"}
		}
		return NotificationsLoadedMsg{Data: data}
	}
}

// MarkAllReadCmd marks every notification read
func MarkAllReadCmd(svc *notification.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := svc.MarkAllRead(ctx); err != nil {
			return ErrMsg{Err: err, Context: "marking notifications read"}
		}
		return ActionDoneMsg{Status: "All notifications marked read"}
	}
}

// WaitForUnreadCmd blocks until the unread observer signals, then reports its
// state. Returns nil once the observer is closed.
func WaitForUnreadCmd(ob *query.Observer[int]) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ob.Updates(); !ok {
			return nil
		}
		return UnreadChangedMsg{State: ob.State()}
	}
}
