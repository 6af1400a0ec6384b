// Package chat serves conversations and polls the open thread for new messages
package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/query"
	"github.com/mmcdole/medbook/internal/resource"
)

// DefaultPollInterval is how often an open thread is refreshed
const DefaultPollInterval = 5 * time.Second

type outgoing struct {
	ConversationID string
	Body           string
}

// Service provides cached chat reads and message sending
type Service struct {
	repo         domain.ChatRepository
	cache        *query.Client
	logger       *slog.Logger
	pollInterval time.Duration

	send *query.Mutation[outgoing, *domain.ChatMessage]
}

// NewService creates a new chat service. A zero poll interval uses the default.
func NewService(repo domain.ChatRepository, cache *query.Client, pollInterval time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	s := &Service{repo: repo, cache: cache, logger: logger, pollInterval: pollInterval}
	s.send = query.NewMutation(cache, func(ctx context.Context, in outgoing) (*domain.ChatMessage, error) {
		return repo.SendMessage(ctx, in.ConversationID, in.Body)
	}, query.MutationOptions[outgoing, *domain.ChatMessage]{
		Name:      "send message",
		Resources: []query.Resource{resource.Chat},
		OnError: func(in outgoing, err error) {
			logger.Error("failed to send message", "conversation", in.ConversationID, "error", err)
		},
	})
	return s
}

// Conversations returns the caller's threads
func (s *Service) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	return query.Fetch(ctx, s.cache, resource.ConversationsKey(), s.repo.ListConversations)
}

// Messages returns one thread's messages
func (s *Service) Messages(ctx context.Context, conversationID string) ([]domain.ChatMessage, error) {
	if conversationID == "" {
		return nil, domain.ErrMissingParam
	}
	return query.Fetch(ctx, s.cache, resource.MessagesKey(conversationID), s.messagesFetcher(conversationID))
}

// ObserveMessages subscribes to a thread and polls it while open. Gated off
// until a conversation is selected.
func (s *Service) ObserveMessages(conversationID string, opts ...query.QueryOption) *query.Observer[[]domain.ChatMessage] {
	opts = append([]query.QueryOption{
		query.Enabled(conversationID != ""),
		query.RefetchInterval(s.pollInterval),
	}, opts...)
	return query.Observe(s.cache, resource.MessagesKey(conversationID), s.messagesFetcher(conversationID), opts...)
}

func (s *Service) messagesFetcher(conversationID string) query.Fetcher[[]domain.ChatMessage] {
	return func(ctx context.Context) ([]domain.ChatMessage, error) {
		return s.repo.ListMessages(ctx, conversationID)
	}
}

// Send posts a message. The thread and the conversation list are refreshed.
func (s *Service) Send(ctx context.Context, conversationID, body string) (*domain.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if conversationID == "" || body == "" {
		return nil, domain.ErrMissingParam
	}
	return s.send.Mutate(ctx, outgoing{ConversationID: conversationID, Body: body})
}
