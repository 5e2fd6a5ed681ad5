package model

import "time"

// RequestStatus is the state of a participation request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestConfirmed RequestStatus = "CONFIRMED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCanceled  RequestStatus = "CANCELED"
)

// Valid reports whether s is one of the known request statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestConfirmed, RequestRejected, RequestCanceled:
		return true
	}
	return false
}

// Active reports whether a request in this status blocks the requester from
// submitting another request for the same event.
func (s RequestStatus) Active() bool {
	return s == RequestPending || s == RequestConfirmed
}

// ParticipationRequest is a user's ask to attend a published event.  Rows
// live in the `participation_requests` table and are never deleted.
//
// Fields:
//
//	ID          – primary key identifier.
//	EventID     – event the request targets.
//	RequesterID – user asking to participate; never the event's initiator.
//	Created     – creation timestamp.
//	Status      – current status.
type ParticipationRequest struct {
	ID          uint64        // participation_requests.id
	EventID     uint64        // participation_requests.event_id
	RequesterID uint64        // participation_requests.requester_id
	Created     time.Time     // participation_requests.created
	Status      RequestStatus // participation_requests.status
}
