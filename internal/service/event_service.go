package service

import (
	"context"
	"time"

	"github.com/iliyamo/event-participation/internal/lifecycle"
	"github.com/iliyamo/event-participation/internal/model"
	"github.com/iliyamo/event-participation/internal/repository"
)

// EventService applies the event lifecycle for owners, administrators and
// anonymous readers.
type EventService struct {
	events     EventStore
	requests   RequestStore
	users      UserStore
	categories CategoryStore
	log        Logger
	now        func() time.Time
}

// NewEventService wires an EventService.  requests supplies the event lock
// participant limit changes are written under.  now may be nil.
func NewEventService(events EventStore, requests RequestStore, users UserStore, categories CategoryStore, logger Logger, now func() time.Time) *EventService {
	return &EventService{
		events:     events,
		requests:   requests,
		users:      users,
		categories: categories,
		log:        logger,
		now:        defaultClock(now),
	}
}

// Create stores a new PENDING event owned by ownerID.
func (s *EventService) Create(ctx context.Context, ownerID uint64, in lifecycle.NewEventInput) (EventView, error) {
	if err := requireUser(ctx, s.users, ownerID); err != nil {
		return EventView{}, err
	}
	if _, err := s.categories.GetByID(ctx, in.CategoryID); err != nil {
		return EventView{}, storeErr(err, "category", in.CategoryID)
	}
	ev, err := lifecycle.NewEvent(ownerID, in, s.now())
	if err != nil {
		return EventView{}, err
	}
	if err := s.events.Create(ctx, &ev); err != nil {
		return EventView{}, err
	}
	s.log.Infof("event %d created by user %d", ev.ID, ownerID)
	return EventView{Event: ev}, nil
}

// OwnerEvent returns one of ownerID's events.  Events of other users are
// reported as not found.
func (s *EventService) OwnerEvent(ctx context.Context, ownerID, eventID uint64) (EventView, error) {
	ev, err := s.ownedEvent(ctx, ownerID, eventID)
	if err != nil {
		return EventView{}, err
	}
	return s.view(ctx, ev)
}

// OwnerEvents pages through ownerID's events.
func (s *EventService) OwnerEvents(ctx context.Context, ownerID uint64, from, size int) ([]EventView, error) {
	if err := requireUser(ctx, s.users, ownerID); err != nil {
		return nil, err
	}
	evs, err := s.events.Search(ctx, repository.EventFilter{InitiatorIDs: []uint64{ownerID}, From: from, Size: size})
	if err != nil {
		return nil, err
	}
	return s.views(ctx, evs)
}

// UpdateByOwner applies an owner edit and optional SEND_TO_REVIEW or
// CANCEL_REVIEW transition.
func (s *EventService) UpdateByOwner(ctx context.Context, ownerID, eventID uint64, f lifecycle.EventFields, action model.StateAction) (EventView, error) {
	if _, err := s.ownedEvent(ctx, ownerID, eventID); err != nil {
		return EventView{}, err
	}
	if err := s.checkCategory(ctx, f.CategoryID); err != nil {
		return EventView{}, err
	}
	prev, next, err := s.edit(ctx, eventID, func(ev model.Event) (model.Event, error) {
		return lifecycle.ApplyOwnerEdit(ev, f, action, s.now())
	})
	if err != nil {
		return EventView{}, err
	}
	if next.State != prev.State {
		s.log.Infof("event %d moved %s -> %s by owner", eventID, prev.State, next.State)
	}
	return s.view(ctx, next)
}

// UpdateByAdmin applies an administrator edit and optional PUBLISH_EVENT or
// REJECT_EVENT transition.
func (s *EventService) UpdateByAdmin(ctx context.Context, eventID uint64, f lifecycle.EventFields, action model.StateAction) (EventView, error) {
	if err := s.checkCategory(ctx, f.CategoryID); err != nil {
		return EventView{}, err
	}
	prev, next, err := s.edit(ctx, eventID, func(ev model.Event) (model.Event, error) {
		return lifecycle.ApplyAdminEdit(ev, f, action, s.now())
	})
	if err != nil {
		return EventView{}, err
	}
	if next.State != prev.State {
		s.log.Infof("event %d moved %s -> %s by admin", eventID, prev.State, next.State)
	}
	if next.ParticipantLimit != prev.ParticipantLimit {
		s.log.Infof("event %d participant limit %d -> %d", eventID, prev.ParticipantLimit, next.ParticipantLimit)
	}
	return s.view(ctx, next)
}

// Published returns a published event; any other state reads as missing.
func (s *EventService) Published(ctx context.Context, eventID uint64) (EventView, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return EventView{}, storeErr(err, "event", eventID)
	}
	if ev.State != model.EventPublished {
		return EventView{}, lifecycle.NotFound("event", eventID)
	}
	return s.view(ctx, ev)
}

// SearchPublished lists published events.  Without a date range only
// upcoming events are returned.
func (s *EventService) SearchPublished(ctx context.Context, f repository.EventFilter) ([]EventView, error) {
	if err := checkRange(f); err != nil {
		return nil, err
	}
	f.States = []model.EventState{model.EventPublished}
	f.InitiatorIDs = nil
	if f.RangeStart == nil && f.RangeEnd == nil {
		now := s.now().UTC()
		f.RangeStart = &now
	}
	evs, err := s.events.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, evs)
}

// SearchAdmin lists events in any state.
func (s *EventService) SearchAdmin(ctx context.Context, f repository.EventFilter) ([]EventView, error) {
	if err := checkRange(f); err != nil {
		return nil, err
	}
	evs, err := s.events.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, evs)
}

func (s *EventService) ownedEvent(ctx context.Context, ownerID, eventID uint64) (model.Event, error) {
	if err := requireUser(ctx, s.users, ownerID); err != nil {
		return model.Event{}, err
	}
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return model.Event{}, storeErr(err, "event", eventID)
	}
	if ev.InitiatorID != ownerID {
		return model.Event{}, lifecycle.NotFound("event", eventID)
	}
	return ev, nil
}

func (s *EventService) checkCategory(ctx context.Context, id *uint64) error {
	if id == nil {
		return nil
	}
	if _, err := s.categories.GetByID(ctx, *id); err != nil {
		return storeErr(err, "category", *id)
	}
	return nil
}

// edit applies change to the event row read under the event lock, the same
// lock request decisions take, and writes the result.  An edit that leaves
// the participant limit below the confirmed requests is refused.
func (s *EventService) edit(ctx context.Context, eventID uint64, change func(model.Event) (model.Event, error)) (prev, next model.Event, err error) {
	err = s.requests.WithEventLock(ctx, eventID, func(tx repository.ParticipationTx) error {
		prev = tx.Event()
		out, err := change(prev)
		if err != nil {
			return err
		}
		confirmed, err := tx.CountConfirmed(ctx)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckLimit(out, confirmed); err != nil {
			return err
		}
		if err := tx.UpdateEvent(ctx, out); err != nil {
			return err
		}
		next = out
		return nil
	})
	if err != nil {
		return prev, next, lockErr(err, eventID)
	}
	return prev, next, nil
}

func (s *EventService) view(ctx context.Context, ev model.Event) (EventView, error) {
	views, err := s.views(ctx, []model.Event{ev})
	if err != nil {
		return EventView{}, err
	}
	return views[0], nil
}

func (s *EventService) views(ctx context.Context, evs []model.Event) ([]EventView, error) {
	ids := make([]uint64, len(evs))
	for i, ev := range evs {
		ids[i] = ev.ID
	}
	counts, err := s.events.ConfirmedCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]EventView, len(evs))
	for i, ev := range evs {
		out[i] = EventView{Event: ev, ConfirmedRequests: counts[ev.ID]}
	}
	return out, nil
}

func checkRange(f repository.EventFilter) error {
	if f.RangeStart != nil && f.RangeEnd != nil && f.RangeEnd.Before(*f.RangeStart) {
		return lifecycle.Validation(lifecycle.ReasonInvalidField, "rangeEnd", "rangeEnd must not precede rangeStart")
	}
	return nil
}
