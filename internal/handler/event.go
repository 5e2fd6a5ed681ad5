package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-participation/internal/middleware"
	"github.com/iliyamo/event-participation/internal/model"
	"github.com/iliyamo/event-participation/internal/repository"
	"github.com/iliyamo/event-participation/internal/service"
)

// EventHandler serves the owner, admin and public event endpoints.
type EventHandler struct {
	Events *service.EventService
}

// NewEventHandler panics when events is nil.
func NewEventHandler(events *service.EventService) *EventHandler {
	if events == nil {
		panic("nil event service passed to NewEventHandler")
	}
	return &EventHandler{Events: events}
}

// currentUser returns the caller's id or writes 401.
func currentUser(c echo.Context) (uint64, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return id, ok
}

// Create handles POST /v1/users/me/events.
func (h *EventHandler) Create(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return nil
	}
	var req newEventReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	v, err := h.Events.Create(c.Request().Context(), uid, req.input())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toEventResp(v))
}

// ListMine handles GET /v1/users/me/events.
func (h *EventHandler) ListMine(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return nil
	}
	from, size, err := page(c)
	if err != nil {
		return fail(c, err)
	}
	vs, err := h.Events.OwnerEvents(c.Request().Context(), uid, from, size)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toEventResps(vs))
}

// GetMine handles GET /v1/users/me/events/:eventId.
func (h *EventHandler) GetMine(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return nil
	}
	eventID, err := pathID(c, "eventId")
	if err != nil {
		return fail(c, err)
	}
	v, err := h.Events.OwnerEvent(c.Request().Context(), uid, eventID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toEventResp(v))
}

// UpdateMine handles PATCH /v1/users/me/events/:eventId.
func (h *EventHandler) UpdateMine(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return nil
	}
	eventID, err := pathID(c, "eventId")
	if err != nil {
		return fail(c, err)
	}
	var req updateEventReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	v, err := h.Events.UpdateByOwner(c.Request().Context(), uid, eventID, req.fields(), model.StateAction(req.StateAction))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toEventResp(v))
}

// AdminUpdate handles PATCH /v1/admin/events/:eventId.
func (h *EventHandler) AdminUpdate(c echo.Context) error {
	eventID, err := pathID(c, "eventId")
	if err != nil {
		return fail(c, err)
	}
	var req updateEventReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	v, err := h.Events.UpdateByAdmin(c.Request().Context(), eventID, req.fields(), model.StateAction(req.StateAction))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toEventResp(v))
}

// AdminSearch handles GET /v1/admin/events?users=&states=&categories=&rangeStart=&rangeEnd=.
func (h *EventHandler) AdminSearch(c echo.Context) error {
	f, err := searchFilter(c)
	if err != nil {
		return fail(c, err)
	}
	if f.InitiatorIDs, err = idList(c, "users"); err != nil {
		return fail(c, err)
	}
	for _, raw := range c.QueryParams()["states"] {
		for _, s := range strings.Split(raw, ",") {
			st := model.EventState(strings.ToUpper(strings.TrimSpace(s)))
			if st == "" {
				continue
			}
			if !st.Valid() {
				return fail(c, badField("states", "unknown state "+string(st)))
			}
			f.States = append(f.States, st)
		}
	}
	vs, err := h.Events.SearchAdmin(c.Request().Context(), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toEventResps(vs))
}

// PublicGet handles GET /v1/events/:id.
func (h *EventHandler) PublicGet(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	v, err := h.Events.Published(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toEventResp(v))
}

// PublicSearch handles GET /v1/events with the text, categories, paid,
// rangeStart, rangeEnd, onlyAvailable and sort=EVENT_DATE filters.
func (h *EventHandler) PublicSearch(c echo.Context) error {
	f, err := searchFilter(c)
	if err != nil {
		return fail(c, err)
	}
	f.Text = c.QueryParam("text")
	if f.Paid, err = queryBool(c, "paid"); err != nil {
		return fail(c, err)
	}
	avail, err := queryBool(c, "onlyAvailable")
	if err != nil {
		return fail(c, err)
	}
	f.OnlyAvailable = avail != nil && *avail
	f.SortByDate = strings.EqualFold(c.QueryParam("sort"), "EVENT_DATE")
	vs, err := h.Events.SearchPublished(c.Request().Context(), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toEventResps(vs))
}

// searchFilter reads the parameters shared by public and admin search.
func searchFilter(c echo.Context) (repository.EventFilter, error) {
	var (
		f   repository.EventFilter
		err error
	)
	if f.From, f.Size, err = page(c); err != nil {
		return f, err
	}
	if f.CategoryIDs, err = idList(c, "categories"); err != nil {
		return f, err
	}
	if f.RangeStart, err = queryTime(c, "rangeStart"); err != nil {
		return f, err
	}
	if f.RangeEnd, err = queryTime(c, "rangeEnd"); err != nil {
		return f, err
	}
	return f, nil
}
