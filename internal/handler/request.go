package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-participation/internal/lifecycle"
	"github.com/iliyamo/event-participation/internal/service"
)

// RequestHandler serves participation request endpoints for requesters and
// event owners.
type RequestHandler struct {
	Requests *service.RequestService
}

// NewRequestHandler panics when requests is nil.
func NewRequestHandler(requests *service.RequestService) *RequestHandler {
	if requests == nil {
		panic("nil request service passed to NewRequestHandler")
	}
	return &RequestHandler{Requests: requests}
}

// Create handles POST /v1/users/me/requests?eventId=.
func (h *RequestHandler) Create(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return nil
	}
	eventID, err := strconv.ParseUint(c.QueryParam("eventId"), 10, 64)
	if err != nil || eventID == 0 {
		return fail(c, badField("eventId", "eventId must be a positive integer"))
	}
	req, err := h.Requests.Create(c.Request().Context(), uid, eventID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toRequestResp(req))
}

// ListMine handles GET /v1/users/me/requests.
func (h *RequestHandler) ListMine(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return nil
	}
	reqs, err := h.Requests.ListMine(c.Request().Context(), uid)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toRequestResps(reqs))
}

// Cancel handles PATCH /v1/users/me/requests/:requestId/cancel.
func (h *RequestHandler) Cancel(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return nil
	}
	requestID, err := pathID(c, "requestId")
	if err != nil {
		return fail(c, err)
	}
	req, err := h.Requests.Cancel(c.Request().Context(), uid, requestID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toRequestResp(req))
}

// ListForEvent handles GET /v1/users/me/events/:eventId/requests.
func (h *RequestHandler) ListForEvent(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return nil
	}
	eventID, err := pathID(c, "eventId")
	if err != nil {
		return fail(c, err)
	}
	reqs, err := h.Requests.ListForEvent(c.Request().Context(), uid, eventID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toRequestResps(reqs))
}

// Decide handles PATCH /v1/users/me/events/:eventId/requests.
func (h *RequestHandler) Decide(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return nil
	}
	eventID, err := pathID(c, "eventId")
	if err != nil {
		return fail(c, err)
	}
	var req decideReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	out, err := h.Requests.BulkDecide(c.Request().Context(), uid, eventID, req.RequestIDs, lifecycle.Decision(req.Status))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, decideResp{
		ConfirmedRequests: toRequestResps(out.Confirmed),
		RejectedRequests:  toRequestResps(out.Rejected),
	})
}
