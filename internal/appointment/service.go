// Package appointment reads and writes appointments through the query cache
package appointment

import (
	"log/slog"

	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/query"
)

// Service bundles the cached reads and the writes for appointments
type Service struct {
	*Queries
	*Commands
}

// NewService creates a new appointment service
func NewService(repo domain.AppointmentRepository, cache *query.Client, logger *slog.Logger) *Service {
	return &Service{
		Queries:  NewQueries(repo, cache, logger),
		Commands: NewCommands(repo, cache, logger),
	}
}
