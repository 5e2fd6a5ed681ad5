// Package queue carries participation decisions over RabbitMQ.  The
// service publishes one message per request whose status was decided
// (auto-confirmed, confirmed, rejected or canceled) and a consumer appends
// each message to an audit log.
package queue

import "time"

// DecisionQueue is the durable queue decisions are routed to.
const DecisionQueue = "participation.decided"

// DecisionEvent describes a single request status change.  It carries
// enough context for consumers to notify the requester without querying
// the primary database.
type DecisionEvent struct {
	MessageID   string    `json:"message_id"`
	RequestID   uint64    `json:"request_id"`
	EventID     uint64    `json:"event_id"`
	EventTitle  string    `json:"event_title"`
	RequesterID uint64    `json:"requester_id"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason"`
	DecidedAt   time.Time `json:"decided_at"`
}
