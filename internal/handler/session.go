package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/coach-scheduler/internal/model"
	"github.com/iliyamo/coach-scheduler/internal/scheduling"
)

// Booker books slots.
type Booker interface {
	Book(ctx context.Context, in scheduling.BookInput) (*model.Session, error)
}

// SessionManager reads and transitions sessions.
type SessionManager interface {
	GetForParty(ctx context.Context, sessionID, actorID uint64) (*model.Session, error)
	SetStatus(ctx context.Context, sessionID, actorID uint64, to model.SessionStatus) (*model.Session, error)
	CompleteWithRating(ctx context.Context, in scheduling.CompleteInput) (*scheduling.CompleteResult, error)
	ListForUser(ctx context.Context, userID uint64, status model.SessionStatus) ([]model.Session, error)
}

// RescheduleManager runs the reschedule workflow.
type RescheduleManager interface {
	Request(ctx context.Context, in scheduling.RescheduleInput) (*scheduling.RequestResult, error)
	Respond(ctx context.Context, requestID, responderID uint64, d scheduling.Decision) (*model.RescheduleRequest, error)
	ListForSession(ctx context.Context, sessionID, actorID uint64) ([]model.RescheduleRequest, error)
}

// SessionHandler exposes booking, session status and reschedule endpoints.
// All methods assume JWTAuth has run; the caller's user id is read from
// the context.
type SessionHandler struct {
	Booking    Booker
	Sessions   SessionManager
	Reschedule RescheduleManager
	Log        *zap.Logger
}

// NewSessionHandler wires the handler and panics on a missing dependency.
func NewSessionHandler(b Booker, s SessionManager, r RescheduleManager, log *zap.Logger) *SessionHandler {
	if b == nil || s == nil || r == nil {
		panic("nil service passed to NewSessionHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionHandler{Booking: b, Sessions: s, Reschedule: r, Log: log}
}

// failLogged logs storage failures before answering.
func (h *SessionHandler) failLogged(c echo.Context, op string, err error) error {
	if statusFor(err) >= http.StatusInternalServerError {
		h.Log.Error(op+" failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return fail(c, err)
}

// Book handles POST /v1/bookings.
func (h *SessionHandler) Book(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var body struct {
		CoachID uint64 `json:"coach_id"`
		TierID  uint64 `json:"tier_id"`
		SlotID  uint64 `json:"slot_id"`
	}
	if err := c.Bind(&body); err != nil {
		return bad(c, "invalid request body")
	}
	if body.CoachID == 0 || body.TierID == 0 || body.SlotID == 0 {
		return bad(c, "coach_id, tier_id and slot_id are required")
	}
	sess, err := h.Booking.Book(c.Request().Context(), scheduling.BookInput{
		LearnerID: userID, CoachID: body.CoachID, TierID: body.TierID, SlotID: body.SlotID,
	})
	if err != nil {
		return h.failLogged(c, "book", err)
	}
	c.Response().Header().Set("Location", "/v1/sessions/"+strconv.FormatUint(sess.ID, 10))
	return ok(c, http.StatusCreated, "Session booked.", echo.Map{"session": sess})
}

// MySessions handles GET /v1/my-sessions?status=.
func (h *SessionHandler) MySessions(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	status := model.SessionStatus(strings.ToLower(strings.TrimSpace(c.QueryParam("status"))))
	list, err := h.Sessions.ListForUser(c.Request().Context(), userID, status)
	if err != nil {
		return h.failLogged(c, "list sessions", err)
	}
	return ok(c, http.StatusOK, "ok", echo.Map{"sessions": list})
}

// Get handles GET /v1/sessions/:id.
func (h *SessionHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return bad(c, "invalid session id")
	}
	sess, err := h.Sessions.GetForParty(c.Request().Context(), id, userID)
	if err != nil {
		return h.failLogged(c, "get session", err)
	}
	return ok(c, http.StatusOK, "ok", echo.Map{"session": sess})
}

// SetStatus handles POST /v1/sessions/:id/status with {"status": "..."}.
func (h *SessionHandler) SetStatus(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return bad(c, "invalid session id")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return bad(c, "invalid request body")
	}
	to := model.SessionStatus(strings.ToLower(strings.TrimSpace(body.Status)))
	sess, err := h.Sessions.SetStatus(c.Request().Context(), id, userID, to)
	if err != nil {
		return h.failLogged(c, "set status", err)
	}
	return ok(c, http.StatusOK, "Session "+string(sess.Status)+".", echo.Map{"session": sess})
}

// Complete handles POST /v1/sessions/:id/complete with an optional
// {"rating": 1-5, "comment": "..."}.
func (h *SessionHandler) Complete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return bad(c, "invalid session id")
	}
	var body struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.Bind(&body); err != nil {
		return bad(c, "invalid request body")
	}
	res, err := h.Sessions.CompleteWithRating(c.Request().Context(), scheduling.CompleteInput{
		SessionID: id, ActorID: userID, Rating: body.Rating, Comment: body.Comment,
	})
	if err != nil {
		return h.failLogged(c, "complete", err)
	}
	msg := "Session completed."
	if res.Review != nil {
		msg = "Session completed. Thanks for your review."
	}
	return ok(c, http.StatusOK, msg, echo.Map{"session": res.Session, "review": res.Review})
}

// RequestReschedule handles POST /v1/sessions/:id/reschedule with
// {"proposed_time": RFC3339, "reason": "..."}.
func (h *SessionHandler) RequestReschedule(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return bad(c, "invalid session id")
	}
	var body struct {
		ProposedTime string `json:"proposed_time"`
		Reason       string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return bad(c, "invalid request body")
	}
	when, valid := parseWhen(body.ProposedTime)
	if !valid {
		return bad(c, "proposed_time must be an RFC3339 timestamp")
	}
	res, err := h.Reschedule.Request(c.Request().Context(), scheduling.RescheduleInput{
		SessionID: id, RequesterID: userID, ProposedTime: when, Reason: body.Reason,
	})
	if err != nil {
		return h.failLogged(c, "request reschedule", err)
	}
	msg := "Reschedule request sent. The proposed time is not an open slot in the coach's availability; approval depends on that time still being free."
	if res.SlotAvailable {
		msg = "Reschedule request sent. The proposed time matches an open slot."
	}
	return ok(c, http.StatusCreated, msg, echo.Map{"request": res.Request, "slot_available": res.SlotAvailable})
}

// ListReschedules handles GET /v1/sessions/:id/reschedule-requests.
func (h *SessionHandler) ListReschedules(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return bad(c, "invalid session id")
	}
	list, err := h.Reschedule.ListForSession(c.Request().Context(), id, userID)
	if err != nil {
		return h.failLogged(c, "list reschedules", err)
	}
	return ok(c, http.StatusOK, "ok", echo.Map{"requests": list})
}

// RespondReschedule handles POST /v1/reschedule-requests/:id/respond with
// {"decision": "approve"|"reject"}.
func (h *SessionHandler) RespondReschedule(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return bad(c, "invalid request id")
	}
	var body struct {
		Decision string `json:"decision"`
	}
	if err := c.Bind(&body); err != nil {
		return bad(c, "invalid request body")
	}
	d, err := scheduling.ParseDecision(body.Decision)
	if err != nil {
		return bad(c, "decision must be approve or reject")
	}
	req, err := h.Reschedule.Respond(c.Request().Context(), id, userID, d)
	if err != nil {
		return h.failLogged(c, "respond reschedule", err)
	}
	msg := "Reschedule request declined."
	if req.Status == model.RescheduleApproved {
		msg = "Reschedule approved. The session has been moved."
	}
	return ok(c, http.StatusOK, msg, echo.Map{"request": req})
}
