// Package notification serves the notification list and the polled unread badge
package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/query"
	"github.com/mmcdole/medbook/internal/resource"
)

// DefaultPollInterval is how often the unread badge is refreshed while observed
const DefaultPollInterval = 30 * time.Second

// Page is one page of notifications
type Page = domain.Page[domain.Notification]

// Service provides cached notification reads and read-state writes
type Service struct {
	repo         domain.NotificationRepository
	cache        *query.Client
	logger       *slog.Logger
	pollInterval time.Duration

	markRead *query.Mutation[string, struct{}]
	markAll  *query.Mutation[struct{}, struct{}]
	remove   *query.Mutation[string, struct{}]
}

// NewService creates a new notification service. A zero poll interval uses the default.
func NewService(repo domain.NotificationRepository, cache *query.Client, pollInterval time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	s := &Service{repo: repo, cache: cache, logger: logger, pollInterval: pollInterval}

	res := []query.Resource{resource.Notifications}
	s.markRead = query.NewMutation(cache, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, repo.MarkNotificationRead(ctx, id)
	}, query.MutationOptions[string, struct{}]{
		Name:      "mark read",
		Resources: res,
		OnError: func(id string, err error) {
			logger.Error("failed to mark notification read", "id", id, "error", err)
		},
	})
	s.markAll = query.NewMutation(cache, func(ctx context.Context, _ struct{}) (struct{}, error) {
		return struct{}{}, repo.MarkAllNotificationsRead(ctx)
	}, query.MutationOptions[struct{}, struct{}]{
		Name:      "mark all read",
		Resources: res,
		OnError: func(_ struct{}, err error) {
			logger.Error("failed to mark notifications read", "error", err)
		},
	})
	s.remove = query.NewMutation(cache, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, repo.DeleteNotification(ctx, id)
	}, query.MutationOptions[string, struct{}]{
		Name:      "delete notification",
		Resources: res,
		OnError: func(id string, err error) {
			logger.Error("failed to delete notification", "id", id, "error", err)
		},
	})
	return s
}

func (s *Service) listFetcher(page, limit int) query.Fetcher[Page] {
	return func(ctx context.Context) (Page, error) {
		return s.repo.ListNotifications(ctx, page, limit)
	}
}

// List returns one page of notifications
func (s *Service) List(ctx context.Context, page, limit int) (Page, error) {
	return query.Fetch(ctx, s.cache, resource.NotificationsKey(page, limit), s.listFetcher(page, limit))
}

// ObserveList subscribes to one page of notifications
func (s *Service) ObserveList(page, limit int, opts ...query.QueryOption) *query.Observer[Page] {
	return query.Observe(s.cache, resource.NotificationsKey(page, limit), s.listFetcher(page, limit), opts...)
}

// UnreadCount returns the unread badge value
func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	return query.Fetch(ctx, s.cache, resource.UnreadCountKey(), s.repo.UnreadCount)
}

// ObserveUnread subscribes to the unread badge, polled on the service interval
// while enabled. Pass query.Enabled(false) when signed out.
func (s *Service) ObserveUnread(opts ...query.QueryOption) *query.Observer[int] {
	opts = append([]query.QueryOption{query.RefetchInterval(s.pollInterval)}, opts...)
	return query.Observe(s.cache, resource.UnreadCountKey(), s.repo.UnreadCount, opts...)
}

// MarkRead marks one notification read
func (s *Service) MarkRead(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrMissingParam
	}
	_, err := s.markRead.Mutate(ctx, id)
	return err
}

// MarkAllRead marks every notification read
func (s *Service) MarkAllRead(ctx context.Context) error {
	_, err := s.markAll.Mutate(ctx, struct{}{})
	return err
}

// Delete removes a notification
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrMissingParam
	}
	_, err := s.remove.Mutate(ctx, id)
	return err
}
