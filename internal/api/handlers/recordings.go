package handlers

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"sessionrecorder/backend/internal/actionlog"
	"sessionrecorder/backend/internal/generator"
	"sessionrecorder/backend/internal/models"
	"sessionrecorder/backend/internal/recorder"
	"sessionrecorder/backend/pkg/database"
	"sessionrecorder/backend/pkg/logger"
	"sessionrecorder/backend/pkg/response"
	"sessionrecorder/backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// loadOwnedRecording fetches a recording the caller may access, writing
// the error response itself when it returns false.
func loadOwnedRecording(c *gin.Context, sessionID string) (*models.Recording, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "not logged in")
		return nil, false
	}

	rec, err := recordings.LoadRecording(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, database.ErrRecordingNotFound) {
			response.NotFound(c, "recording not found")
		} else {
			logger.L().Error("Failed to load recording", zap.String("session_id", sessionID), zap.Error(err))
			response.InternalServerError(c, "failed to load recording")
		}
		return nil, false
	}

	if !utils.CanAccessRecording(database.DB, userID, rec) {
		response.NotFound(c, "recording not found")
		return nil, false
	}
	return rec, true
}

func GetRecordings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "not logged in")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	owner := userID
	if utils.IsAdmin(database.DB, userID) {
		owner = 0
	}

	list, total, err := recordings.ListRecordings(c.Request.Context(), owner, page, pageSize)
	if err != nil {
		logger.L().Error("Failed to list recordings", zap.Error(err))
		response.InternalServerError(c, "failed to list recordings")
		return
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	response.Page(c, list, total, page, pageSize)
}

type RecordingDetail struct {
	models.Recording
	Actions []models.Action `json:"actions"`
}

func GetRecording(c *gin.Context) {
	rec, ok := loadOwnedRecording(c, c.Param("session_id"))
	if !ok {
		return
	}

	actions, err := rec.GetActions()
	if err != nil {
		response.InternalServerError(c, "failed to decode recorded actions")
		return
	}
	if actions == nil {
		actions = make([]models.Action, 0)
	}
	response.Success(c, RecordingDetail{Recording: *rec, Actions: actions})
}

func DeleteRecording(c *gin.Context) {
	sessionID := c.Param("session_id")
	if _, ok := loadOwnedRecording(c, sessionID); !ok {
		return
	}

	ctx := c.Request.Context()
	if err := recorder.Manager.CleanupRecording(ctx, sessionID); err != nil {
		logger.L().Warn("Failed to clean up live session", zap.String("session_id", sessionID), zap.Error(err))
	}
	if err := recordings.DeleteRecording(ctx, sessionID); err != nil {
		response.InternalServerError(c, "failed to delete recording")
		return
	}
	response.SuccessWithMessage(c, "recording deleted", nil)
}

type GenerateRequest struct {
	FileName string   `json:"file_name"`
	Formats  []string `json:"formats"`
}

// GenerateScripts compiles a stopped recording into the requested formats
// and returns the artifacts inline.
func GenerateScripts(c *gin.Context) {
	var req GenerateRequest
	// an empty body selects every format under the default name
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, err.Error())
		return
	}

	actions, ok := stoppedActions(c, c.Param("session_id"))
	if !ok {
		return
	}

	formats, err := parseFormats(req.Formats)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	name := req.FileName
	if strings.TrimSpace(name) == "" {
		name = defaultFileName()
	}
	artifacts, err := generator.GenerateAll(actions, generator.Options{
		FileName: name,
		Formats:  formats,
		Config:   generatorConfig(),
	})
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, artifacts)
}

// DownloadScript serves one artifact as a file attachment.
func DownloadScript(c *gin.Context) {
	format, err := generator.ParseFormat(c.DefaultQuery("format", string(generator.FormatSelenium)))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	actions, ok := stoppedActions(c, c.Param("session_id"))
	if !ok {
		return
	}

	name := c.Query("file_name")
	if strings.TrimSpace(name) == "" {
		name = defaultFileName()
	}
	artifacts, err := generator.GenerateAll(actions, generator.Options{
		FileName: name,
		Formats:  []generator.Format{format},
		Config:   generatorConfig(),
	})
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	a := artifacts[0]
	response.Attachment(c, a.FileName, a.ContentType, a.Content)
}

// DownloadActionLog serves the frozen log as a bare JSON array, the file
// format scriptgen reads.
func DownloadActionLog(c *gin.Context) {
	sessionID := c.Param("session_id")
	rec, ok := loadOwnedRecording(c, sessionID)
	if !ok {
		return
	}
	if rec.IsRecording {
		response.Conflict(c, "stop the recording before exporting its log")
		return
	}
	actions, err := rec.GetActions()
	if err != nil {
		response.InternalServerError(c, "failed to decode recorded actions")
		return
	}
	data, err := actionlog.Marshal(actions)
	if err != nil {
		response.InternalServerError(c, "failed to encode action log")
		return
	}
	response.Attachment(c, sessionID+".json", "application/json", string(data))
}

// stoppedActions returns the frozen log of a recording that is no longer
// active.
func stoppedActions(c *gin.Context, sessionID string) ([]models.Action, bool) {
	rec, ok := loadOwnedRecording(c, sessionID)
	if !ok {
		return nil, false
	}
	if rec.IsRecording {
		response.Conflict(c, "stop the recording before generating scripts")
		return nil, false
	}
	actions, err := rec.GetActions()
	if err != nil {
		response.InternalServerError(c, "failed to decode recorded actions")
		return nil, false
	}
	if len(actions) == 0 {
		response.BadRequest(c, "no actions were recorded")
		return nil, false
	}
	return actions, true
}

func parseFormats(names []string) ([]generator.Format, error) {
	formats := make([]generator.Format, 0, len(names))
	for _, n := range names {
		f, err := generator.ParseFormat(n)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}
