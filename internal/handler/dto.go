package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-participation/internal/lifecycle"
	"github.com/iliyamo/event-participation/internal/model"
	"github.com/iliyamo/event-participation/internal/service"
)

// DateLayout is the wire format of every timestamp.  Values are UTC.
const DateLayout = "2006-01-02 15:04:05"

type locationDTO struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

type newEventReq struct {
	Title             string      `json:"title" validate:"required,min=3,max=120"`
	Annotation        string      `json:"annotation" validate:"required,min=20,max=2000"`
	Description       string      `json:"description" validate:"required,min=20,max=7000"`
	Category          uint64      `json:"category" validate:"required"`
	EventDate         string      `json:"eventDate" validate:"required,datetime=2006-01-02 15:04:05"`
	Location          locationDTO `json:"location"`
	Paid              bool        `json:"paid"`
	ParticipantLimit  int         `json:"participantLimit" validate:"gte=0"`
	RequestModeration *bool       `json:"requestModeration"`
}

func (r newEventReq) input() lifecycle.NewEventInput {
	date, _ := time.ParseInLocation(DateLayout, r.EventDate, time.UTC)
	moderation := true
	if r.RequestModeration != nil {
		moderation = *r.RequestModeration
	}
	return lifecycle.NewEventInput{
		CategoryID:        r.Category,
		Title:             r.Title,
		Annotation:        r.Annotation,
		Description:       r.Description,
		EventDate:         date,
		Paid:              r.Paid,
		ParticipantLimit:  r.ParticipantLimit,
		RequestModeration: moderation,
		Location:          model.Location{Lat: r.Location.Lat, Lon: r.Location.Lon},
	}
}

// updateEventReq is shared by owner and admin edits.  Which state actions
// each may use is decided by the lifecycle rules.
type updateEventReq struct {
	Title             *string      `json:"title" validate:"omitempty,min=3,max=120"`
	Annotation        *string      `json:"annotation" validate:"omitempty,min=20,max=2000"`
	Description       *string      `json:"description" validate:"omitempty,min=20,max=7000"`
	Category          *uint64      `json:"category" validate:"omitempty,gt=0"`
	EventDate         *string      `json:"eventDate" validate:"omitempty,datetime=2006-01-02 15:04:05"`
	Location          *locationDTO `json:"location"`
	Paid              *bool        `json:"paid"`
	ParticipantLimit  *int         `json:"participantLimit" validate:"omitempty,gte=0"`
	RequestModeration *bool        `json:"requestModeration"`
	StateAction       string       `json:"stateAction" validate:"omitempty,oneof=SEND_TO_REVIEW CANCEL_REVIEW PUBLISH_EVENT REJECT_EVENT"`
}

func (r updateEventReq) fields() lifecycle.EventFields {
	f := lifecycle.EventFields{
		CategoryID:        r.Category,
		Title:             r.Title,
		Annotation:        r.Annotation,
		Description:       r.Description,
		Paid:              r.Paid,
		ParticipantLimit:  r.ParticipantLimit,
		RequestModeration: r.RequestModeration,
	}
	if r.EventDate != nil {
		d, _ := time.ParseInLocation(DateLayout, *r.EventDate, time.UTC)
		f.EventDate = &d
	}
	if r.Location != nil {
		f.Location = &model.Location{Lat: r.Location.Lat, Lon: r.Location.Lon}
	}
	return f
}

type eventResp struct {
	ID                uint64      `json:"id"`
	Title             string      `json:"title"`
	Annotation        string      `json:"annotation"`
	Description       string      `json:"description"`
	Category          uint64      `json:"category"`
	Initiator         uint64      `json:"initiator"`
	EventDate         string      `json:"eventDate"`
	CreatedOn         string      `json:"createdOn"`
	PublishedOn       string      `json:"publishedOn,omitempty"`
	Location          locationDTO `json:"location"`
	Paid              bool        `json:"paid"`
	ParticipantLimit  int         `json:"participantLimit"`
	RequestModeration bool        `json:"requestModeration"`
	State             string      `json:"state"`
	ConfirmedRequests int64       `json:"confirmedRequests"`
}

func toEventResp(v service.EventView) eventResp {
	out := eventResp{
		ID:                v.ID,
		Title:             v.Title,
		Annotation:        v.Annotation,
		Description:       v.Description,
		Category:          v.CategoryID,
		Initiator:         v.InitiatorID,
		EventDate:         formatTime(v.EventDate),
		CreatedOn:         formatTime(v.CreatedOn),
		Location:          locationDTO{Lat: v.Location.Lat, Lon: v.Location.Lon},
		Paid:              v.Paid,
		ParticipantLimit:  v.ParticipantLimit,
		RequestModeration: v.RequestModeration,
		State:             string(v.State),
		ConfirmedRequests: v.ConfirmedRequests,
	}
	if v.PublishedOn != nil {
		out.PublishedOn = formatTime(*v.PublishedOn)
	}
	return out
}

func toEventResps(vs []service.EventView) []eventResp {
	out := make([]eventResp, 0, len(vs))
	for _, v := range vs {
		out = append(out, toEventResp(v))
	}
	return out
}

type requestResp struct {
	ID        uint64 `json:"id"`
	Event     uint64 `json:"event"`
	Requester uint64 `json:"requester"`
	Created   string `json:"created"`
	Status    string `json:"status"`
}

func toRequestResp(r model.ParticipationRequest) requestResp {
	return requestResp{
		ID:        r.ID,
		Event:     r.EventID,
		Requester: r.RequesterID,
		Created:   r.Created.UTC().Format(DateLayout),
		Status:    string(r.Status),
	}
}

func toRequestResps(rs []model.ParticipationRequest) []requestResp {
	out := make([]requestResp, 0, len(rs))
	for _, r := range rs {
		out = append(out, toRequestResp(r))
	}
	return out
}

type decideReq struct {
	RequestIDs []uint64 `json:"requestIds" validate:"required,min=1,dive,gt=0"`
	Status     string   `json:"status" validate:"required,oneof=CONFIRMED REJECTED"`
}

type decideResp struct {
	ConfirmedRequests []requestResp `json:"confirmedRequests"`
	RejectedRequests  []requestResp `json:"rejectedRequests"`
}

type categoryReq struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}

func formatTime(t time.Time) string { return t.UTC().Format(DateLayout) }

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badField(name, name+" must be a positive integer")
	}
	return id, nil
}

// page reads from/size with defaults 0/10.
func page(c echo.Context) (from, size int, err error) {
	from, size = 0, 10
	if v := c.QueryParam("from"); v != "" {
		if from, err = strconv.Atoi(v); err != nil || from < 0 {
			return 0, 0, badField("from", "from must be a non-negative integer")
		}
	}
	if v := c.QueryParam("size"); v != "" {
		if size, err = strconv.Atoi(v); err != nil || size <= 0 || size > 1000 {
			return 0, 0, badField("size", "size must be between 1 and 1000")
		}
	}
	return from, size, nil
}

// idList parses a comma separated or repeated query parameter of ids.
func idList(c echo.Context, name string) ([]uint64, error) {
	var out []uint64
	for _, raw := range c.QueryParams()[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil {
				return nil, badField(name, name+" must list positive integers")
			}
			out = append(out, id)
		}
	}
	return out, nil
}

func queryTime(c echo.Context, name string) (*time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, v, time.UTC)
	if err != nil {
		return nil, badField(name, name+" must use layout "+DateLayout)
	}
	return &t, nil
}

func queryBool(c echo.Context, name string) (*bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, badField(name, name+" must be true or false")
	}
	return &b, nil
}
