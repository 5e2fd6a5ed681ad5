package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/event-participation/internal/model"
)

// EventRepo manages the `events` table.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying pool for callers that need their own
// transaction.
func (r *EventRepo) DB() *sql.DB { return r.db }

const eventColumns = `e.id, e.initiator_id, e.category_id, e.title, e.annotation, e.description,
	e.event_date, e.created_on, e.published_on, e.paid, e.participant_limit,
	e.request_moderation, e.lat, e.lon, e.state`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(s rowScanner) (model.Event, error) {
	var (
		ev          model.Event
		publishedOn sql.NullTime
		state       string
	)
	err := s.Scan(
		&ev.ID, &ev.InitiatorID, &ev.CategoryID, &ev.Title, &ev.Annotation, &ev.Description,
		&ev.EventDate, &ev.CreatedOn, &publishedOn, &ev.Paid, &ev.ParticipantLimit,
		&ev.RequestModeration, &ev.Location.Lat, &ev.Location.Lon, &state,
	)
	if err != nil {
		return ev, err
	}
	if publishedOn.Valid {
		t := publishedOn.Time.UTC()
		ev.PublishedOn = &t
	}
	ev.EventDate = ev.EventDate.UTC()
	ev.CreatedOn = ev.CreatedOn.UTC()
	ev.State = model.EventState(state)
	return ev, nil
}

// Create inserts ev and sets its generated ID.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
	const q = `INSERT INTO events (initiator_id, category_id, title, annotation, description,
		event_date, created_on, published_on, paid, participant_limit, request_moderation, lat, lon, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		ev.InitiatorID, ev.CategoryID, ev.Title, ev.Annotation, ev.Description,
		ev.EventDate, ev.CreatedOn, nullTime(ev.PublishedOn), ev.Paid, ev.ParticipantLimit,
		ev.RequestModeration, ev.Location.Lat, ev.Location.Lon, string(ev.State))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	return nil
}

// GetByID returns ErrNotFound when no event has the given id.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	ev, err := scanEvent(r.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events e WHERE e.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return ev, ErrNotFound
	}
	return ev, err
}

// updateEventSQL writes every mutable column; callers add the WHERE clause.
const updateEventSQL = `UPDATE events SET category_id=?, title=?, annotation=?, description=?, event_date=?,
	published_on=?, paid=?, participant_limit=?, request_moderation=?, lat=?, lon=?, state=?`

func updateEventArgs(ev model.Event) []any {
	return []any{
		ev.CategoryID, ev.Title, ev.Annotation, ev.Description, ev.EventDate,
		nullTime(ev.PublishedOn), ev.Paid, ev.ParticipantLimit, ev.RequestModeration,
		ev.Location.Lat, ev.Location.Lon, string(ev.State),
	}
}

// EventFilter narrows Search.  Zero values disable a filter.
type EventFilter struct {
	InitiatorIDs  []uint64
	States        []model.EventState
	CategoryIDs   []uint64
	Text          string
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	SortByDate    bool
	From          int
	Size          int
}

// Search returns events matching f ordered by id (or by event date when
// SortByDate is set).
func (r *EventRepo) Search(ctx context.Context, f EventFilter) ([]model.Event, error) {
	where := []string{}
	args := []any{}

	if len(f.InitiatorIDs) > 0 {
		where = append(where, "e.initiator_id IN ("+placeholders(len(f.InitiatorIDs))+")")
		for _, id := range f.InitiatorIDs {
			args = append(args, id)
		}
	}
	if len(f.States) > 0 {
		where = append(where, "e.state IN ("+placeholders(len(f.States))+")")
		for _, s := range f.States {
			args = append(args, string(s))
		}
	}
	if len(f.CategoryIDs) > 0 {
		where = append(where, "e.category_id IN ("+placeholders(len(f.CategoryIDs))+")")
		for _, id := range f.CategoryIDs {
			args = append(args, id)
		}
	}
	if text := strings.TrimSpace(f.Text); text != "" {
		where = append(where, "(LOWER(e.annotation) LIKE ? OR LOWER(e.description) LIKE ?)")
		like := "%" + strings.ToLower(text) + "%"
		args = append(args, like, like)
	}
	if f.Paid != nil {
		where = append(where, "e.paid = ?")
		args = append(args, *f.Paid)
	}
	if f.RangeStart != nil {
		where = append(where, "e.event_date >= ?")
		args = append(args, *f.RangeStart)
	}
	if f.RangeEnd != nil {
		where = append(where, "e.event_date <= ?")
		args = append(args, *f.RangeEnd)
	}
	if f.OnlyAvailable {
		where = append(where, `(e.participant_limit = 0 OR e.participant_limit >
			(SELECT COUNT(*) FROM participation_requests pr WHERE pr.event_id = e.id AND pr.status = 'CONFIRMED'))`)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	order := "e.id ASC"
	if f.SortByDate {
		order = "e.event_date ASC, e.id ASC"
	}
	size := f.Size
	if size <= 0 {
		size = 10
	}

	q := "SELECT " + eventColumns + " FROM events e WHERE " + cond + " ORDER BY " + order + " LIMIT ? OFFSET ?"
	args = append(args, size, f.From)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Event, 0, size)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// ConfirmedCounts returns the number of CONFIRMED requests per event id.
// Events without confirmed requests are absent from the map.
func (r *EventRepo) ConfirmedCounts(ctx context.Context, eventIDs []uint64) (map[uint64]int64, error) {
	out := make(map[uint64]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(eventIDs))
	for i, id := range eventIDs {
		args[i] = id
	}
	q := `SELECT event_id, COUNT(*) FROM participation_requests
		WHERE status = 'CONFIRMED' AND event_id IN (` + placeholders(len(eventIDs)) + `)
		GROUP BY event_id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id uint64
			n  int64
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
