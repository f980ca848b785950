package handlers

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"sessionrecorder/backend/internal/messaging"
	"sessionrecorder/backend/internal/models"
	"sessionrecorder/backend/internal/recorder"
	"sessionrecorder/backend/pkg/chrome"
	"sessionrecorder/backend/pkg/logger"
	"sessionrecorder/backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// wsWriteTimeout bounds a live-feed write so a stalled client cannot hold
// up event dispatch.
const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type StartRecordingRequest struct {
	URL    string `json:"url" binding:"required"`
	Device string `json:"device"`
}

func StartRecording(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "not logged in")
		return
	}

	var req StartRecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		response.BadRequest(c, "url must be an absolute http or https URL")
		return
	}

	dev := chrome.GetDevice(req.Device)
	sessionID := uuid.New().String()

	ctx := c.Request.Context()
	err = recordings.CreateRecording(ctx, &models.Recording{
		SessionID: sessionID,
		StartURL:  req.URL,
		Device:    dev.Name,
		UserID:    userID,
	})
	if err != nil {
		logger.L().Error("Failed to create recording", zap.Error(err))
		response.InternalServerError(c, "failed to create recording")
		return
	}

	if err := recorder.Manager.StartRecording(ctx, sessionID, req.URL, dev); err != nil {
		if delErr := recordings.DeleteRecording(ctx, sessionID); delErr != nil {
			logger.L().Warn("Failed to remove recording row", zap.String("session_id", sessionID), zap.Error(delErr))
		}
		response.InternalServerError(c, "failed to start recording: "+err.Error())
		return
	}

	response.SuccessWithMessage(c, "recording started", gin.H{
		"session_id": sessionID,
		"device":     dev.Name,
	})
}

// StopRecording stops the session, persists its log and closes its
// browser.
func StopRecording(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if !authorizeSession(c, req.SessionID) {
		return
	}

	ctx := c.Request.Context()
	count, err := recorder.Manager.StopRecording(ctx, req.SessionID)
	if err != nil {
		response.NotFound(c, "recording session not found")
		return
	}
	if err := recorder.Manager.CleanupRecording(ctx, req.SessionID); err != nil {
		logger.L().Warn("Failed to clean up recording", zap.String("session_id", req.SessionID), zap.Error(err))
	}

	response.SuccessWithMessage(c, "recording stopped", gin.H{
		"session_id":   req.SessionID,
		"actionsCount": count,
	})
}

func GetRecordingStatus(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		response.BadRequest(c, "session_id is required")
		return
	}
	if !authorizeSession(c, sessionID) {
		return
	}

	isRecording, actions, err := recorder.Manager.GetRecordingStatus(sessionID)
	if err != nil {
		// not live any more; report what was persisted
		rec, loadErr := recordings.LoadRecording(c.Request.Context(), sessionID)
		if loadErr != nil {
			response.NotFound(c, "recording session not found")
			return
		}
		isRecording = false
		actions, err = rec.GetActions()
		if err != nil {
			response.InternalServerError(c, "failed to decode recorded actions")
			return
		}
	}

	if actions == nil {
		actions = make([]models.Action, 0)
	}

	response.Success(c, gin.H{
		"is_recording": isRecording,
		"actions":      actions,
	})
}

// authorizeSession checks that the caller owns the persisted session and
// writes the error response when not.
func authorizeSession(c *gin.Context, sessionID string) bool {
	_, ok := loadOwnedRecording(c, sessionID)
	return ok
}

type wsEnvelope struct {
	Type     string              `json:"type"`
	Action   *models.Action      `json:"action,omitempty"`
	Response *messaging.Response `json:"response,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// RecordingWebSocket streams the session's actions as they are captured
// and answers control messages ({"action":"startRecording"} and
// {"action":"stopRecording"}) on the same connection.
func RecordingWebSocket(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	// the unguessable session id authorizes the socket

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.L().Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	// the socket outlives the server's per-request read timeout
	_ = conn.SetReadDeadline(time.Time{})

	var writeMu sync.Mutex
	send := func(msg wsEnvelope) {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			logger.L().Debug("WebSocket write failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	rec, exists := recorder.Manager.GetRecorder(sessionID)
	if !exists {
		send(wsEnvelope{Type: "error", Error: "recording session not found"})
		return
	}

	unsubscribe, err := recorder.Manager.Subscribe(sessionID, func(a models.Action) {
		send(wsEnvelope{Type: "action", Action: &a})
	})
	if err != nil {
		send(wsEnvelope{Type: "error", Error: err.Error()})
		return
	}
	defer unsubscribe()

	dispatcher := messaging.NewDispatcher(rec)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.L().Warn("WebSocket read error", zap.String("session_id", sessionID), zap.Error(err))
			}
			return
		}
		resp := dispatcher.HandleRaw(c.Request.Context(), raw)
		send(wsEnvelope{Type: "response", Response: &resp})
	}
}
