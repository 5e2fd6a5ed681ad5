package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/event-participation/internal/model"
)

// ParticipationTx is the view of the store available while the event row
// is locked.  Everything read through it is current for the duration of the
// transaction and no other ParticipationTx for the same event can run
// concurrently, so count-then-write sequences cannot overbook.
type ParticipationTx interface {
	// Event returns the locked event row.
	Event() model.Event
	// CountConfirmed returns the number of CONFIRMED requests of the event.
	CountConfirmed(ctx context.Context) (int64, error)
	// HasActive reports whether requesterID holds a PENDING or CONFIRMED
	// request for the event.
	HasActive(ctx context.Context, requesterID uint64) (bool, error)
	// Get returns one request of the event, or ErrNotFound.
	Get(ctx context.Context, requestID uint64) (model.ParticipationRequest, error)
	// FindByIDs returns the event's requests whose id is in ids, by
	// ascending id.  Unknown ids are skipped.
	FindByIDs(ctx context.Context, ids []uint64) ([]model.ParticipationRequest, error)
	// PendingIDs returns ids of the event's PENDING requests by ascending id.
	PendingIDs(ctx context.Context) ([]uint64, error)
	// Insert stores req and sets its ID.
	Insert(ctx context.Context, req *model.ParticipationRequest) error
	// SetStatus moves every request in ids to status.
	SetStatus(ctx context.Context, ids []uint64, status model.RequestStatus) error
	// UpdateEvent writes every mutable column of the locked event.  ev.ID
	// must be the locked event's id.
	UpdateEvent(ctx context.Context, ev model.Event) error
}

// RequestRepo manages the `participation_requests` table.
type RequestRepo struct {
	db *sql.DB
}

// NewRequestRepo constructs a RequestRepo with the given DB handle.
func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{db: db} }

// WithEventLock runs fn inside a READ COMMITTED transaction that holds an
// exclusive row lock on the event (SELECT ... FOR UPDATE).  The
// transaction commits when fn returns nil and rolls back otherwise.  It
// returns ErrNotFound when the event does not exist.
func (r *RequestRepo) WithEventLock(ctx context.Context, eventID uint64, fn func(tx ParticipationTx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	ev, err := scanEvent(tx.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events e WHERE e.id = ? FOR UPDATE", eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	if err := fn(&sqlParticipationTx{tx: tx, event: ev}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

const requestColumns = "id, event_id, requester_id, created, status"

func scanRequest(s rowScanner) (model.ParticipationRequest, error) {
	var (
		req    model.ParticipationRequest
		status string
	)
	if err := s.Scan(&req.ID, &req.EventID, &req.RequesterID, &req.Created, &status); err != nil {
		return req, err
	}
	req.Created = req.Created.UTC()
	req.Status = model.RequestStatus(status)
	return req, nil
}

func (r *RequestRepo) list(ctx context.Context, q string, args ...any) ([]model.ParticipationRequest, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ParticipationRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// GetByID returns ErrNotFound when no request has the given id.
func (r *RequestRepo) GetByID(ctx context.Context, id uint64) (model.ParticipationRequest, error) {
	req, err := scanRequest(r.db.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM participation_requests WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return req, ErrNotFound
	}
	return req, err
}

// ListByRequester returns every request submitted by requesterID.
func (r *RequestRepo) ListByRequester(ctx context.Context, requesterID uint64) ([]model.ParticipationRequest, error) {
	return r.list(ctx,
		"SELECT "+requestColumns+" FROM participation_requests WHERE requester_id = ? ORDER BY id", requesterID)
}

// ListByEvent returns every request submitted for eventID.
func (r *RequestRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.ParticipationRequest, error) {
	return r.list(ctx,
		"SELECT "+requestColumns+" FROM participation_requests WHERE event_id = ? ORDER BY id", eventID)
}

type sqlParticipationTx struct {
	tx    *sql.Tx
	event model.Event
}

func (t *sqlParticipationTx) Event() model.Event { return t.event }

func (t *sqlParticipationTx) CountConfirmed(ctx context.Context) (int64, error) {
	var n int64
	err := t.tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM participation_requests WHERE event_id = ? AND status = 'CONFIRMED'",
		t.event.ID).Scan(&n)
	return n, err
}

func (t *sqlParticipationTx) HasActive(ctx context.Context, requesterID uint64) (bool, error) {
	var n int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participation_requests
		 WHERE event_id = ? AND requester_id = ? AND status IN ('PENDING', 'CONFIRMED')`,
		t.event.ID, requesterID).Scan(&n)
	return n > 0, err
}

func (t *sqlParticipationTx) Get(ctx context.Context, requestID uint64) (model.ParticipationRequest, error) {
	req, err := scanRequest(t.tx.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM participation_requests WHERE id = ? AND event_id = ?",
		requestID, t.event.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return req, ErrNotFound
	}
	return req, err
}

func (t *sqlParticipationTx) FindByIDs(ctx context.Context, ids []uint64) ([]model.ParticipationRequest, error) {
	if len(ids) == 0 {
		return []model.ParticipationRequest{}, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, t.event.ID)
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := t.tx.QueryContext(ctx,
		"SELECT "+requestColumns+" FROM participation_requests WHERE event_id = ? AND id IN ("+
			placeholders(len(ids))+") ORDER BY id ASC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ParticipationRequest, 0, len(ids))
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (t *sqlParticipationTx) PendingIDs(ctx context.Context) ([]uint64, error) {
	rows, err := t.tx.QueryContext(ctx,
		"SELECT id FROM participation_requests WHERE event_id = ? AND status = 'PENDING' ORDER BY id ASC",
		t.event.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (t *sqlParticipationTx) Insert(ctx context.Context, req *model.ParticipationRequest) error {
	res, err := t.tx.ExecContext(ctx,
		"INSERT INTO participation_requests (event_id, requester_id, created, status) VALUES (?, ?, ?, ?)",
		req.EventID, req.RequesterID, req.Created, string(req.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	return nil
}

func (t *sqlParticipationTx) SetStatus(ctx context.Context, ids []uint64, status model.RequestStatus) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids)+2)
	args = append(args, string(status), t.event.ID)
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := t.tx.ExecContext(ctx,
		"UPDATE participation_requests SET status = ? WHERE event_id = ? AND id IN ("+placeholders(len(ids))+")",
		args...)
	return err
}

func (t *sqlParticipationTx) UpdateEvent(ctx context.Context, ev model.Event) error {
	if ev.ID != t.event.ID {
		return fmt.Errorf("update event %d while holding the lock of event %d", ev.ID, t.event.ID)
	}
	_, err := t.tx.ExecContext(ctx, updateEventSQL+" WHERE id=?", append(updateEventArgs(ev), ev.ID)...)
	if err != nil {
		return err
	}
	t.event = ev
	return nil
}
