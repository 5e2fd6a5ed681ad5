package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/event-participation/internal/model"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func pendingEvent() model.Event {
	return model.Event{
		ID:                10,
		InitiatorID:       1,
		CategoryID:        2,
		Title:             "Go meetup",
		EventDate:         now.Add(48 * time.Hour),
		CreatedOn:         now.Add(-time.Hour),
		ParticipantLimit:  2,
		RequestModeration: true,
		State:             model.EventPending,
	}
}

func TestNextEventState(t *testing.T) {
	tests := []struct {
		name    string
		current model.EventState
		action  model.StateAction
		actor   Actor
		want    model.EventState
		wantErr error
	}{
		{"owner send pending", model.EventPending, model.ActionSendToReview, ActorOwner, model.EventPending, nil},
		{"owner send published", model.EventPublished, model.ActionSendToReview, ActorOwner, "", ErrEventNotEditable},
		{"owner send canceled", model.EventCanceled, model.ActionSendToReview, ActorOwner, "", ErrEventNotEditable},
		{"owner cancel pending", model.EventPending, model.ActionCancelReview, ActorOwner, model.EventCanceled, nil},
		{"owner cancel canceled", model.EventCanceled, model.ActionCancelReview, ActorOwner, model.EventCanceled, nil},
		{"owner cancel published", model.EventPublished, model.ActionCancelReview, ActorOwner, "", ErrEventNotEditable},
		{"admin publish pending", model.EventPending, model.ActionPublish, ActorAdmin, model.EventPublished, nil},
		{"admin publish published", model.EventPublished, model.ActionPublish, ActorAdmin, "", ErrEventNotEditable},
		{"admin publish canceled", model.EventCanceled, model.ActionPublish, ActorAdmin, "", ErrEventNotEditable},
		{"admin reject pending", model.EventPending, model.ActionReject, ActorAdmin, model.EventCanceled, nil},
		{"admin reject published", model.EventPublished, model.ActionReject, ActorAdmin, "", ErrEventNotEditable},
		{"owner cannot publish", model.EventPending, model.ActionPublish, ActorOwner, "", ErrInvalidField},
		{"admin cannot send", model.EventPending, model.ActionSendToReview, ActorAdmin, "", ErrInvalidField},
		{"unknown action", model.EventPending, "ARCHIVE", ActorAdmin, "", ErrInvalidField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextEventState(tt.current, tt.action, tt.actor)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v; want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("state = %s; want %s", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	in := NewEventInput{CategoryID: 1, Title: "  Go  ", EventDate: now.Add(2 * time.Hour), RequestModeration: true}
	ev, err := NewEvent(7, in, now)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	if ev.State != model.EventPending || ev.InitiatorID != 7 || ev.Title != "Go" || !ev.CreatedOn.Equal(now) {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.PublishedOn != nil {
		t.Fatal("new event must not carry a publication time")
	}

	in.EventDate = now.Add(2*time.Hour - time.Second)
	if _, err := NewEvent(7, in, now); !errors.Is(err, ErrEventDateTooSoon) {
		t.Fatalf("err = %v; want EventDateTooSoon", err)
	}

	in.EventDate = now.Add(3 * time.Hour)
	in.ParticipantLimit = -1
	_, err = NewEvent(7, in, now)
	var le *Error
	if !errors.As(err, &le) || le.Kind != KindValidation || le.Field != "participantLimit" {
		t.Fatalf("err = %v; want validation on participantLimit", err)
	}
}

func TestOwnerCannotEditPublishedEvent(t *testing.T) {
	ev := pendingEvent()
	ev.State = model.EventPublished
	for name, f := range map[string]EventFields{
		"no fields":  {},
		"title only": {Title: ptr("New title")},
		"limit only": {ParticipantLimit: ptr(9)},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := ApplyOwnerEdit(ev, f, "", now)
			if !errors.Is(err, ErrEventNotEditable) {
				t.Fatalf("err = %v; want EventNotEditable", err)
			}
			if got.Title != ev.Title || got.ParticipantLimit != ev.ParticipantLimit {
				t.Fatal("rejected edit changed the event")
			}
		})
	}
}

func TestApplyOwnerEdit(t *testing.T) {
	ev := pendingEvent()
	next, err := ApplyOwnerEdit(ev, EventFields{Title: ptr("Renamed")}, model.ActionCancelReview, now)
	if err != nil {
		t.Fatalf("ApplyOwnerEdit: %v", err)
	}
	if next.Title != "Renamed" || next.State != model.EventCanceled {
		t.Fatalf("got %+v", next)
	}
	if ev.Title != "Go meetup" || ev.State != model.EventPending {
		t.Fatal("input event was mutated")
	}

	_, err = ApplyOwnerEdit(ev, EventFields{EventDate: ptr(now.Add(time.Hour))}, "", now)
	if !errors.Is(err, ErrEventDateTooSoon) {
		t.Fatalf("err = %v; want EventDateTooSoon", err)
	}

	canceled := ev
	canceled.State = model.EventCanceled
	_, err = ApplyOwnerEdit(canceled, EventFields{}, model.ActionSendToReview, now)
	var le *Error
	if !errors.As(err, &le) || le.Reason != ReasonEventNotEditable || le.ID != ev.ID {
		t.Fatalf("err = %v; want EventNotEditable for id %d", err, ev.ID)
	}
}

func TestApplyAdminEditPublish(t *testing.T) {
	ev := pendingEvent()
	next, err := ApplyAdminEdit(ev, EventFields{}, model.ActionPublish, now)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if next.State != model.EventPublished || next.PublishedOn == nil || !next.PublishedOn.Equal(now) {
		t.Fatalf("got %+v", next)
	}

	if _, err := ApplyAdminEdit(next, EventFields{}, model.ActionPublish, now); !errors.Is(err, ErrEventNotEditable) {
		t.Fatalf("publishing twice: err = %v; want EventNotEditable", err)
	}

	soon := ev
	soon.EventDate = now.Add(30 * time.Minute)
	if _, err := ApplyAdminEdit(soon, EventFields{}, model.ActionPublish, now); !errors.Is(err, ErrEventDateException) {
		t.Fatalf("err = %v; want EventDateException", err)
	}
}

func TestApplyAdminEditDateAfterPublication(t *testing.T) {
	ev := pendingEvent()
	published := now.Add(-10 * time.Minute)
	ev.State = model.EventPublished
	ev.PublishedOn = &published

	if _, err := ApplyAdminEdit(ev, EventFields{EventDate: ptr(published.Add(59 * time.Minute))}, "", now); !errors.Is(err, ErrEventDateException) {
		t.Fatalf("err = %v; want EventDateException", err)
	}
	next, err := ApplyAdminEdit(ev, EventFields{EventDate: ptr(published.Add(time.Hour))}, "", now)
	if err != nil {
		t.Fatalf("date exactly one hour after publication: %v", err)
	}
	if !next.EventDate.Equal(published.Add(time.Hour)) {
		t.Fatalf("EventDate = %s", next.EventDate)
	}
}

func TestAdminRejectsPendingEvent(t *testing.T) {
	next, err := ApplyAdminEdit(pendingEvent(), EventFields{}, model.ActionReject, now)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if next.State != model.EventCanceled || next.PublishedOn != nil {
		t.Fatalf("got %+v", next)
	}
}
