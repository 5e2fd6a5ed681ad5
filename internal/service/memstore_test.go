package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/iliyamo/event-participation/internal/model"
	"github.com/iliyamo/event-participation/internal/queue"
	"github.com/iliyamo/event-participation/internal/repository"
)

// memStore is an in-memory stand-in for the MySQL repositories.  Each
// event has its own lock held for the whole of WithEventLock, and request
// writes made inside it are buffered and applied only when fn succeeds, so
// it mirrors the SELECT ... FOR UPDATE transaction.
type memStore struct {
	mu         sync.Mutex
	locks      map[uint64]*sync.Mutex
	users      map[uint64]bool
	categories map[uint64]model.Category
	events     map[uint64]model.Event
	requests   map[uint64]model.ParticipationRequest
	nextID     uint64
}

func newMemStore() *memStore {
	return &memStore{
		locks:      map[uint64]*sync.Mutex{},
		users:      map[uint64]bool{},
		categories: map[uint64]model.Category{},
		events:     map[uint64]model.Event{},
		requests:   map[uint64]model.ParticipationRequest{},
	}
}

func (s *memStore) id() uint64 {
	s.nextID++
	return s.nextID
}

// ---- UserStore ----

func (s *memStore) Exists(_ context.Context, id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id], nil
}

// ---- CategoryStore ----

func (s *memStore) Create(_ context.Context, c *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.categories {
		if other.Name == c.Name {
			return repository.ErrDuplicate
		}
	}
	c.ID = s.id()
	s.categories[c.ID] = *c
	return nil
}

func (s *memStore) Rename(_ context.Context, id uint64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return repository.ErrNotFound
	}
	for _, other := range s.categories {
		if other.ID != id && other.Name == name {
			return repository.ErrDuplicate
		}
	}
	s.categories[id] = model.Category{ID: id, Name: name}
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uint64) (model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return c, repository.ErrNotFound
	}
	return c, nil
}

func (s *memStore) List(_ context.Context, from, size int) ([]model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, from, size), nil
}

// eventStore adapts memStore to EventStore; its method names clash with
// the category ones.
type eventStore struct{ *memStore }

func (s eventStore) Create(_ context.Context, ev *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.ID = s.id()
	s.events[ev.ID] = *ev
	return nil
}

func (s eventStore) GetByID(_ context.Context, id uint64) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return ev, repository.ErrNotFound
	}
	return ev, nil
}

func (s eventStore) Search(_ context.Context, f repository.EventFilter) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Event
	for _, ev := range s.events {
		if len(f.InitiatorIDs) > 0 && !contains(f.InitiatorIDs, ev.InitiatorID) {
			continue
		}
		if len(f.CategoryIDs) > 0 && !contains(f.CategoryIDs, ev.CategoryID) {
			continue
		}
		if len(f.States) > 0 && !contains(f.States, ev.State) {
			continue
		}
		if f.RangeStart != nil && ev.EventDate.Before(*f.RangeStart) {
			continue
		}
		if f.RangeEnd != nil && ev.EventDate.After(*f.RangeEnd) {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, f.From, f.Size), nil
}

func (s eventStore) ConfirmedCounts(_ context.Context, ids []uint64) (map[uint64]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[uint64]int64{}
	for _, r := range s.requests {
		if r.Status == model.RequestConfirmed && contains(ids, r.EventID) {
			out[r.EventID]++
		}
	}
	return out, nil
}

// requestStore adapts memStore to RequestStore.
type requestStore struct{ *memStore }

func (s requestStore) WithEventLock(ctx context.Context, eventID uint64, fn func(tx repository.ParticipationTx) error) error {
	s.mu.Lock()
	lock, ok := s.locks[eventID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[eventID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	ev, ok := s.events[eventID]
	s.mu.Unlock()
	if !ok {
		return repository.ErrNotFound
	}
	tx := &memTx{store: s.memStore, event: ev, writes: map[uint64]model.ParticipationRequest{}}
	if err := fn(tx); err != nil {
		return err
	}
	s.mu.Lock()
	for id, r := range tx.writes {
		s.requests[id] = r
	}
	if tx.eventDirty {
		s.events[eventID] = tx.event
	}
	s.mu.Unlock()
	return nil
}

func (s requestStore) GetByID(_ context.Context, id uint64) (model.ParticipationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return r, repository.ErrNotFound
	}
	return r, nil
}

func (s requestStore) ListByRequester(_ context.Context, requesterID uint64) ([]model.ParticipationRequest, error) {
	return s.filter(func(r model.ParticipationRequest) bool { return r.RequesterID == requesterID }), nil
}

func (s requestStore) ListByEvent(_ context.Context, eventID uint64) ([]model.ParticipationRequest, error) {
	return s.filter(func(r model.ParticipationRequest) bool { return r.EventID == eventID }), nil
}

func (s *memStore) filter(keep func(model.ParticipationRequest) bool) []model.ParticipationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.ParticipationRequest{}
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// memTx buffers writes until WithEventLock commits them.
type memTx struct {
	store      *memStore
	event      model.Event
	eventDirty bool
	writes     map[uint64]model.ParticipationRequest
}

func (t *memTx) Event() model.Event { return t.event }

// current returns the event's requests as seen inside the transaction.
func (t *memTx) current() []model.ParticipationRequest {
	t.store.mu.Lock()
	merged := map[uint64]model.ParticipationRequest{}
	for id, r := range t.store.requests {
		if r.EventID == t.event.ID {
			merged[id] = r
		}
	}
	t.store.mu.Unlock()
	for id, r := range t.writes {
		merged[id] = r
	}
	out := make([]model.ParticipationRequest, 0, len(merged))
	for _, r := range merged {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *memTx) CountConfirmed(context.Context) (int64, error) {
	var n int64
	for _, r := range t.current() {
		if r.Status == model.RequestConfirmed {
			n++
		}
	}
	return n, nil
}

func (t *memTx) HasActive(_ context.Context, requesterID uint64) (bool, error) {
	for _, r := range t.current() {
		if r.RequesterID == requesterID && r.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) Get(_ context.Context, id uint64) (model.ParticipationRequest, error) {
	for _, r := range t.current() {
		if r.ID == id {
			return r, nil
		}
	}
	return model.ParticipationRequest{}, repository.ErrNotFound
}

func (t *memTx) FindByIDs(_ context.Context, ids []uint64) ([]model.ParticipationRequest, error) {
	out := []model.ParticipationRequest{}
	for _, r := range t.current() {
		if contains(ids, r.ID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (t *memTx) PendingIDs(context.Context) ([]uint64, error) {
	var ids []uint64
	for _, r := range t.current() {
		if r.Status == model.RequestPending {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

func (t *memTx) Insert(_ context.Context, req *model.ParticipationRequest) error {
	t.store.mu.Lock()
	req.ID = t.store.id()
	t.store.mu.Unlock()
	t.writes[req.ID] = *req
	return nil
}

func (t *memTx) SetStatus(_ context.Context, ids []uint64, status model.RequestStatus) error {
	for _, r := range t.current() {
		if contains(ids, r.ID) {
			r.Status = status
			t.writes[r.ID] = r
		}
	}
	return nil
}

func (t *memTx) UpdateEvent(_ context.Context, ev model.Event) error {
	if ev.ID != t.event.ID {
		return fmt.Errorf("update event %d while holding the lock of event %d", ev.ID, t.event.ID)
	}
	t.event = ev
	t.eventDirty = true
	return nil
}

func contains[T comparable](xs []T, x T) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func window[T any](xs []T, from, size int) []T {
	if size <= 0 {
		size = 10
	}
	if from >= len(xs) {
		return []T{}
	}
	end := from + size
	if end > len(xs) {
		end = len(xs)
	}
	return xs[from:end]
}

// recorder collects published decisions.
type recorder struct {
	mu     sync.Mutex
	events []queue.DecisionEvent
}

func (r *recorder) PublishDecisions(_ context.Context, evs []queue.DecisionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evs...)
	return nil
}

func (r *recorder) statuses() map[uint64]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[uint64]string{}
	for _, ev := range r.events {
		out[ev.RequestID] = ev.Status
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{}) {}
