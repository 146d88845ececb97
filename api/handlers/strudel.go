// Package handlers provides HTTP API request handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/strudel-live/backend/internal/buffer"
	"github.com/strudel-live/backend/internal/model"
	"github.com/strudel-live/backend/internal/repository"
	"github.com/strudel-live/backend/internal/ws"
)

// StrudelHandler handles HTTP requests for the Strudel control surface:
// server status, session history, and the player page's session bootstrap.
type StrudelHandler struct {
	manager  *ws.Manager
	history  *repository.HistoryRepository
	errorLog *buffer.EventLog
}

// NewStrudelHandler creates a new StrudelHandler. history and errorLog may be
// nil; the corresponding response fields are then omitted or empty.
func NewStrudelHandler(manager *ws.Manager, history *repository.HistoryRepository, errorLog *buffer.EventLog) *StrudelHandler {
	return &StrudelHandler{
		manager:  manager,
		history:  history,
		errorLog: errorLog,
	}
}

// StatusResponse represents the server status in API responses.
type StatusResponse struct {
	Status           string             `json:"status"`
	TotalConnections int                `json:"totalConnections"`
	ActiveSessions   []string           `json:"activeSessions"`
	RecentErrors     []buffer.EvalError `json:"recentErrors,omitempty"`
	Time             string             `json:"time"`
}

// HistoryEntryResponse represents one history record in API responses.
type HistoryEntryResponse struct {
	ID          int64  `json:"id"`
	SessionID   string `json:"sessionId"`
	Kind        string `json:"kind"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

// SessionInfoResponse represents a freshly issued session code.
type SessionInfoResponse struct {
	SessionID string `json:"sessionId"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// sendError sends an error response with the appropriate status code.
func sendError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// toHistoryResponse converts a model.PlayRecord to HistoryEntryResponse.
func toHistoryResponse(rec *model.PlayRecord) *HistoryEntryResponse {
	return &HistoryEntryResponse{
		ID:          rec.ID,
		SessionID:   rec.SessionID,
		Kind:        string(rec.Kind),
		Code:        rec.Code,
		Description: rec.Description,
		Error:       rec.Error,
		CreatedAt:   rec.CreatedAt.Format(time.RFC3339),
	}
}

// Status handles GET /strudel/status - reports live connection state.
func (h *StrudelHandler) Status(c *gin.Context) {
	resp := StatusResponse{
		Status:           "ok",
		TotalConnections: h.manager.ConnectionCount(),
		ActiveSessions:   h.manager.ActiveSessionIDs(),
		Time:             time.Now().Format(time.RFC3339),
	}
	if resp.ActiveSessions == nil {
		resp.ActiveSessions = []string{}
	}
	if h.errorLog != nil {
		resp.RecentErrors = h.errorLog.Recent()
	}

	c.JSON(http.StatusOK, resp)
}

// NewSession handles POST /strudel/sessions - issues a session code that is
// not bound to any live connection. The player page calls this on load and
// then connects the WebSocket with the returned code.
func (h *StrudelHandler) NewSession(c *gin.Context) {
	c.JSON(http.StatusCreated, SessionInfoResponse{
		SessionID: h.manager.GenerateSessionID(),
	})
}

// History handles GET /strudel/sessions/:id/history - lists recent commands
// and errors for a session, newest first.
func (h *StrudelHandler) History(c *gin.Context) {
	sessionID := c.Param("id")
	if h.history == nil {
		sendError(c, http.StatusNotFound, "HISTORY_DISABLED", "History recording is not enabled")
		return
	}

	records, err := h.history.ListBySession(c.Request.Context(), sessionID, 50)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list history: "+err.Error())
		return
	}

	response := make([]*HistoryEntryResponse, len(records))
	for i, rec := range records {
		response[i] = toHistoryResponse(rec)
	}

	c.JSON(http.StatusOK, response)
}

// RegisterRoutes registers the Strudel handler routes on a Gin router group.
func (h *StrudelHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/status", h.Status)
	rg.POST("/sessions", h.NewSession)
	rg.GET("/sessions/:id/history", h.History)
}
