package model

import "time"

// EventState is the publication state of an event.
type EventState string

const (
	EventPending   EventState = "PENDING"
	EventPublished EventState = "PUBLISHED"
	EventCanceled  EventState = "CANCELED"
)

// Valid reports whether s is one of the known event states.
func (s EventState) Valid() bool {
	switch s {
	case EventPending, EventPublished, EventCanceled:
		return true
	}
	return false
}

// StateAction is a transition requested on an event by its owner or by an
// administrator.  Owners may only send SEND_TO_REVIEW and CANCEL_REVIEW;
// administrators may only send PUBLISH_EVENT and REJECT_EVENT.
type StateAction string

const (
	ActionSendToReview StateAction = "SEND_TO_REVIEW"
	ActionCancelReview StateAction = "CANCEL_REVIEW"
	ActionPublish      StateAction = "PUBLISH_EVENT"
	ActionReject       StateAction = "REJECT_EVENT"
)

// Location is the point where an event takes place.
type Location struct {
	Lat float64 // events.lat
	Lon float64 // events.lon
}

// Event is a schedulable activity owned by a user.  It corresponds to a row
// in the `events` table.
//
// Fields:
//
//	ID                – primary key identifier.
//	InitiatorID       – user who created and owns the event.
//	CategoryID        – category the event is filed under.
//	Title             – short title.
//	Annotation        – one paragraph summary.
//	Description       – full description.
//	EventDate         – scheduled start (UTC).
//	CreatedOn         – creation timestamp.
//	PublishedOn       – publication timestamp, nil until the event is published.
//	Paid              – whether participation is paid.
//	ParticipantLimit  – maximum number of confirmed requests, 0 means unlimited.
//	RequestModeration – whether the owner must confirm requests manually.
//	Location          – venue coordinates.
//	State             – publication state.
type Event struct {
	ID                uint64     // events.id
	InitiatorID       uint64     // events.initiator_id
	CategoryID        uint64     // events.category_id
	Title             string     // events.title
	Annotation        string     // events.annotation
	Description       string     // events.description
	EventDate         time.Time  // events.event_date
	CreatedOn         time.Time  // events.created_on
	PublishedOn       *time.Time // events.published_on (nullable)
	Paid              bool       // events.paid
	ParticipantLimit  int        // events.participant_limit
	RequestModeration bool       // events.request_moderation
	Location          Location
	State             EventState // events.state
}

// Unlimited reports whether the event accepts any number of participants.
func (e Event) Unlimited() bool { return e.ParticipantLimit == 0 }
