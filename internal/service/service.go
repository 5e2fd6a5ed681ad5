// Package service orchestrates the lifecycle rules against the stores.
// Handlers call into EventService, RequestService and CategoryService;
// those load state, delegate decisions to package lifecycle and persist
// the outcome.  Every failure returned to handlers is either a
// *lifecycle.Error or a wrapped infrastructure error.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/event-participation/internal/lifecycle"
	"github.com/iliyamo/event-participation/internal/model"
	"github.com/iliyamo/event-participation/internal/queue"
	"github.com/iliyamo/event-participation/internal/repository"
)

// EventStore persists events.
type EventStore interface {
	Create(ctx context.Context, ev *model.Event) error
	GetByID(ctx context.Context, id uint64) (model.Event, error)
	Search(ctx context.Context, f repository.EventFilter) ([]model.Event, error)
	ConfirmedCounts(ctx context.Context, eventIDs []uint64) (map[uint64]int64, error)
}

// RequestStore persists participation requests.  WithEventLock is the
// only way to write; it serialises writers per event.
type RequestStore interface {
	WithEventLock(ctx context.Context, eventID uint64, fn func(tx repository.ParticipationTx) error) error
	GetByID(ctx context.Context, id uint64) (model.ParticipationRequest, error)
	ListByRequester(ctx context.Context, requesterID uint64) ([]model.ParticipationRequest, error)
	ListByEvent(ctx context.Context, eventID uint64) ([]model.ParticipationRequest, error)
}

// UserStore answers user existence questions.
type UserStore interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}

// CategoryStore persists categories.
type CategoryStore interface {
	Create(ctx context.Context, c *model.Category) error
	Rename(ctx context.Context, id uint64, name string) error
	GetByID(ctx context.Context, id uint64) (model.Category, error)
	List(ctx context.Context, from, size int) ([]model.Category, error)
}

// Notifier receives committed request decisions.
type Notifier interface {
	PublishDecisions(ctx context.Context, events []queue.DecisionEvent) error
}

// Logger is the subset of echo's logger the services use.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// EventView is an event plus its current confirmed request count.
type EventView struct {
	model.Event
	ConfirmedRequests int64
}

// storeErr maps repository sentinels to lifecycle errors for entity id.
func storeErr(err error, entity string, id uint64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return lifecycle.NotFound(entity, id)
	}
	return fmt.Errorf("%s %d: %w", entity, id, err)
}

func requireUser(ctx context.Context, users UserStore, id uint64) error {
	ok, err := users.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("user %d: %w", id, err)
	}
	if !ok {
		return lifecycle.NotFound("user", id)
	}
	return nil
}

func defaultClock(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
