package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mmcdole/medbook/internal/domain"
	"github.com/tidwall/gjson"
)

// ListNotifications returns one page of notifications
func (c *Client) ListNotifications(ctx context.Context, page, limit int) (domain.Page[domain.Notification], error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return list[domain.Notification](ctx, c, RouteNotifications, nil, q)
}

// UnreadCount returns the number of unread notifications. The server answers
// either a bare number or an object with a count field.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	raw, err := c.send(ctx, http.MethodGet, RouteNotificationsUnread, RouteNotificationsUnread, nil, nil)
	if err != nil {
		return 0, err
	}
	data := gjson.ParseBytes(payload(raw))
	for _, field := range []string{"count", "unreadCount", "unread"} {
		if v := data.Get(field); v.Exists() {
			return int(v.Int()), nil
		}
	}
	return int(data.Int()), nil
}

// MarkNotificationRead marks one notification read
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodPut, RouteNotificationRead, Params{"id": id}, nil, struct{}{}, nil)
}

// MarkAllNotificationsRead marks every notification read
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.Do(ctx, http.MethodPut, RouteNotificationsRead, nil, nil, struct{}{}, nil)
}

// DeleteNotification removes a notification
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, RouteNotification, Params{"id": id}, nil, nil, nil)
}
