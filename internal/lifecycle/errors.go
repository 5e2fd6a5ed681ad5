package lifecycle

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure.
type Kind int

const (
	// KindNotFound means a referenced entity does not exist or is scoped to
	// another owner.  Ownership mismatches are reported this way on purpose.
	KindNotFound Kind = iota + 1
	// KindValidation means caller-supplied data violates a static rule.
	KindValidation
	// KindConflict means the request is well formed but clashes with the
	// current state of an entity.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindValidation:
		return "Validation"
	case KindConflict:
		return "Conflict"
	}
	return "Unknown"
}

// Reason names the specific rule that failed.
type Reason string

const (
	ReasonNotFound                   Reason = "NotFound"
	ReasonInvalidField               Reason = "InvalidField"
	ReasonEventDateTooSoon           Reason = "EventDateTooSoon"
	ReasonEventDateException         Reason = "EventDateException"
	ReasonEventNotEditable           Reason = "EventNotEditable"
	ReasonOwnerCannotRequestOwnEvent Reason = "OwnerCannotRequestOwnEvent"
	ReasonEventNotPublished          Reason = "EventNotPublished"
	ReasonDuplicateRequest           Reason = "DuplicateRequest"
	ReasonParticipantLimitReached    Reason = "ParticipantLimitReached"
	ReasonRequestNotPending          Reason = "RequestNotPending"
	ReasonNameTaken                  Reason = "NameTaken"
)

// Error is the typed failure returned by every lifecycle operation.  Field
// names the offending input, ID the offending entity; either may be empty.
type Error struct {
	Kind    Kind
	Reason  Reason
	Field   string
	ID      uint64
	Message string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Reason)
	}
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s: %s (field %s)", e.Kind, msg, e.Field)
	case e.ID != 0:
		return fmt.Sprintf("%s: %s (id %d)", e.Kind, msg, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Is matches another *Error with the same kind and reason so the package
// level sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Reason == t.Reason
}

// Sentinels for errors.Is comparisons.  Never return these directly; use the
// constructors so the field or id travels with the error.
var (
	ErrNotFound                   = &Error{Kind: KindNotFound, Reason: ReasonNotFound}
	ErrInvalidField               = &Error{Kind: KindValidation, Reason: ReasonInvalidField}
	ErrEventDateTooSoon           = &Error{Kind: KindValidation, Reason: ReasonEventDateTooSoon}
	ErrEventDateException         = &Error{Kind: KindValidation, Reason: ReasonEventDateException}
	ErrEventNotEditable           = &Error{Kind: KindConflict, Reason: ReasonEventNotEditable}
	ErrOwnerCannotRequestOwnEvent = &Error{Kind: KindConflict, Reason: ReasonOwnerCannotRequestOwnEvent}
	ErrEventNotPublished          = &Error{Kind: KindConflict, Reason: ReasonEventNotPublished}
	ErrDuplicateRequest           = &Error{Kind: KindConflict, Reason: ReasonDuplicateRequest}
	ErrParticipantLimitReached    = &Error{Kind: KindConflict, Reason: ReasonParticipantLimitReached}
	ErrRequestNotPending          = &Error{Kind: KindConflict, Reason: ReasonRequestNotPending}
	ErrNameTaken                  = &Error{Kind: KindConflict, Reason: ReasonNameTaken}
)

// NotFound reports a missing entity of the given kind.
func NotFound(entity string, id uint64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Reason:  ReasonNotFound,
		ID:      id,
		Message: fmt.Sprintf("%s with id=%d was not found", entity, id),
	}
}

// Validation reports a static rule violation on field.
func Validation(reason Reason, field, msg string) *Error {
	return &Error{Kind: KindValidation, Reason: reason, Field: field, Message: msg}
}

// Conflict reports a current-state violation on the entity with the given id.
func Conflict(reason Reason, id uint64, msg string) *Error {
	return &Error{Kind: KindConflict, Reason: reason, ID: id, Message: msg}
}

// KindOf returns the kind of err, or zero when err is not a lifecycle error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
