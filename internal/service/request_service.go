package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/event-participation/internal/lifecycle"
	"github.com/iliyamo/event-participation/internal/model"
	"github.com/iliyamo/event-participation/internal/queue"
	"github.com/iliyamo/event-participation/internal/repository"
)

// RequestOptions tunes the allocation behaviour of RequestService.
type RequestOptions struct {
	// Ordering decides which pending requests win the remaining slots.
	Ordering lifecycle.Ordering
	// AutoRejectOnFull rejects every other pending request of the event
	// once a confirm batch fills it.
	AutoRejectOnFull bool
}

// RequestService runs the participation request lifecycle.  Every write
// happens inside RequestStore.WithEventLock so the confirmed count read
// and the status writes that depend on it are serialised per event.
type RequestService struct {
	events           EventStore
	requests         RequestStore
	users            UserStore
	notifier         Notifier
	log              Logger
	allocator        lifecycle.Allocator
	autoRejectOnFull bool
	now              func() time.Time
}

// NewRequestService wires a RequestService.  notifier and now may be nil.
func NewRequestService(events EventStore, requests RequestStore, users UserStore, notifier Notifier, logger Logger, opts RequestOptions, now func() time.Time) *RequestService {
	return &RequestService{
		events:           events,
		requests:         requests,
		users:            users,
		notifier:         notifier,
		log:              logger,
		allocator:        lifecycle.Allocator{Ordering: opts.Ordering},
		autoRejectOnFull: opts.AutoRejectOnFull,
		now:              defaultClock(now),
	}
}

// Create submits a request from requesterID for eventID.  The request is
// stored CONFIRMED right away when the event has no moderation or no
// participant limit, PENDING otherwise.
func (s *RequestService) Create(ctx context.Context, requesterID, eventID uint64) (model.ParticipationRequest, error) {
	if err := requireUser(ctx, s.users, requesterID); err != nil {
		return model.ParticipationRequest{}, err
	}

	var (
		created model.ParticipationRequest
		event   model.Event
	)
	err := s.requests.WithEventLock(ctx, eventID, func(tx repository.ParticipationTx) error {
		event = tx.Event()
		active, err := tx.HasActive(ctx, requesterID)
		if err != nil {
			return err
		}
		confirmed, err := tx.CountConfirmed(ctx)
		if err != nil {
			return err
		}
		req, err := lifecycle.NewRequest(event, requesterID, lifecycle.Eligibility{
			HasActiveRequest: active,
			ConfirmedCount:   confirmed,
		}, s.now())
		if err != nil {
			return err
		}
		if err := tx.Insert(ctx, &req); err != nil {
			return err
		}
		created = req
		return nil
	})
	if err != nil {
		return model.ParticipationRequest{}, lockErr(err, eventID)
	}

	s.log.Infof("request %d for event %d created as %s", created.ID, eventID, created.Status)
	if created.Status == model.RequestConfirmed {
		s.notify(ctx, event, "auto-confirmed", created)
	}
	return created, nil
}

// Cancel withdraws one of requesterID's requests.  Canceling a canceled
// request succeeds and changes nothing.
func (s *RequestService) Cancel(ctx context.Context, requesterID, requestID uint64) (model.ParticipationRequest, error) {
	if err := requireUser(ctx, s.users, requesterID); err != nil {
		return model.ParticipationRequest{}, err
	}
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return model.ParticipationRequest{}, storeErr(err, "request", requestID)
	}
	if req.RequesterID != requesterID {
		return model.ParticipationRequest{}, lifecycle.NotFound("request", requestID)
	}

	var (
		out     model.ParticipationRequest
		changed bool
		event   model.Event
	)
	err = s.requests.WithEventLock(ctx, req.EventID, func(tx repository.ParticipationTx) error {
		event = tx.Event()
		cur, err := tx.Get(ctx, requestID)
		if err != nil {
			return err
		}
		out, changed = lifecycle.CancelRequest(cur)
		if !changed {
			return nil
		}
		return tx.SetStatus(ctx, []uint64{requestID}, out.Status)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ParticipationRequest{}, lifecycle.NotFound("request", requestID)
		}
		return model.ParticipationRequest{}, err
	}
	if changed {
		s.log.Infof("request %d canceled by requester %d", requestID, requesterID)
		s.notify(ctx, event, "canceled by requester", out)
	}
	return out, nil
}

// BulkDecide confirms or rejects pending requests of ownerID's event.  A
// batch containing any non-pending request fails as a whole, and so does a
// confirm batch on a full event.
func (s *RequestService) BulkDecide(ctx context.Context, ownerID, eventID uint64, requestIDs []uint64, decision lifecycle.Decision) (lifecycle.Allocation, error) {
	if err := requireUser(ctx, s.users, ownerID); err != nil {
		return lifecycle.Allocation{}, err
	}
	ids := dedupe(requestIDs)

	var (
		out          lifecycle.Allocation
		autoRejected []model.ParticipationRequest
		event        model.Event
	)
	err := s.requests.WithEventLock(ctx, eventID, func(tx repository.ParticipationTx) error {
		event = tx.Event()
		if event.InitiatorID != ownerID {
			return lifecycle.NotFound("event", eventID)
		}
		batch, err := tx.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		confirmed, err := tx.CountConfirmed(ctx)
		if err != nil {
			return err
		}
		out, err = s.allocator.Decide(decision, eventID, event.ParticipantLimit, confirmed, batch)
		if err != nil {
			return err
		}
		if err := tx.SetStatus(ctx, lifecycle.IDs(out.Confirmed), model.RequestConfirmed); err != nil {
			return err
		}
		if err := tx.SetStatus(ctx, lifecycle.IDs(out.Rejected), model.RequestRejected); err != nil {
			return err
		}

		remaining, limited := lifecycle.Remaining(event.ParticipantLimit, confirmed+int64(len(out.Confirmed)))
		if !s.autoRejectOnFull || decision != lifecycle.DecisionConfirm || !limited || remaining > 0 {
			return nil
		}
		pending, err := tx.PendingIDs(ctx)
		if err != nil {
			return err
		}
		if err := tx.SetStatus(ctx, pending, model.RequestRejected); err != nil {
			return err
		}
		autoRejected, err = tx.FindByIDs(ctx, pending)
		return err
	})
	if err != nil {
		return lifecycle.Allocation{}, lockErr(err, eventID)
	}

	s.log.Infof("event %d: %d confirmed, %d rejected, %d auto-rejected",
		eventID, len(out.Confirmed), len(out.Rejected), len(autoRejected))
	s.notify(ctx, event, "owner decision", out.Confirmed...)
	s.notify(ctx, event, "owner decision", out.Rejected...)
	s.notify(ctx, event, "participant limit reached", autoRejected...)
	return out, nil
}

// ListMine returns the requests submitted by requesterID.
func (s *RequestService) ListMine(ctx context.Context, requesterID uint64) ([]model.ParticipationRequest, error) {
	if err := requireUser(ctx, s.users, requesterID); err != nil {
		return nil, err
	}
	return s.requests.ListByRequester(ctx, requesterID)
}

// ListForEvent returns the requests submitted for one of ownerID's events.
func (s *RequestService) ListForEvent(ctx context.Context, ownerID, eventID uint64) ([]model.ParticipationRequest, error) {
	if err := requireUser(ctx, s.users, ownerID); err != nil {
		return nil, err
	}
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, storeErr(err, "event", eventID)
	}
	if ev.InitiatorID != ownerID {
		return nil, lifecycle.NotFound("event", eventID)
	}
	return s.requests.ListByEvent(ctx, eventID)
}

func (s *RequestService) notify(ctx context.Context, ev model.Event, reason string, reqs ...model.ParticipationRequest) {
	if s.notifier == nil || len(reqs) == 0 {
		return
	}
	at := s.now().UTC()
	msgs := make([]queue.DecisionEvent, 0, len(reqs))
	for _, r := range reqs {
		msgs = append(msgs, queue.DecisionEvent{
			RequestID:   r.ID,
			EventID:     ev.ID,
			EventTitle:  ev.Title,
			RequesterID: r.RequesterID,
			Status:      string(r.Status),
			Reason:      reason,
			DecidedAt:   at,
		})
	}
	if err := s.notifier.PublishDecisions(ctx, msgs); err != nil {
		s.log.Warnf("publish %d decisions for event %d: %v", len(msgs), ev.ID, err)
	}
}

// lockErr maps a missing event row from WithEventLock to NotFound and
// passes everything else through.
func lockErr(err error, eventID uint64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return lifecycle.NotFound("event", eventID)
	}
	return err
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
