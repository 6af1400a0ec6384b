package api

import (
	"context"
	"net/http"

	"github.com/mmcdole/medbook/internal/domain"
)

// ListConversations returns the caller's chat threads
func (c *Client) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	var out []domain.Conversation
	if err := c.Do(ctx, http.MethodGet, RouteConversations, nil, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMessages returns the messages of one conversation, oldest first
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	if err := c.Do(ctx, http.MethodGet, RouteMessages, Params{"conversationId": conversationID}, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage posts a message to a conversation
func (c *Client) SendMessage(ctx context.Context, conversationID, body string) (*domain.ChatMessage, error) {
	in := struct {
		Body string `json:"body"`
	}{body}
	var out domain.ChatMessage
	if err := c.Do(ctx, http.MethodPost, RouteMessages, Params{"conversationId": conversationID}, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
