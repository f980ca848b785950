package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"sessionrecorder/backend/internal/models"
	"sessionrecorder/backend/internal/recorder"
	"sessionrecorder/backend/pkg/auth"
	"sessionrecorder/backend/pkg/database"
	"sessionrecorder/backend/pkg/logger"
	"sessionrecorder/backend/pkg/response"
	"sessionrecorder/backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=6"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// OperatorSession is what a client needs to resume work after signing
// in: a token and the operator's recordings, including sessions still
// capturing that it can reattach to over the WebSocket.
type OperatorSession struct {
	Token      string                    `json:"token"`
	ExpiresAt  int64                     `json:"expires_at"`
	User       models.User               `json:"user"`
	Recordings database.RecordingSummary `json:"recordings"`
}

func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	login := strings.TrimSpace(req.Username)
	var user models.User
	err := database.DB.Where("username = ? OR email = ?", login, strings.ToLower(login)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Unauthorized(c, "invalid username or password")
		} else {
			logger.L().Error("Login lookup failed", zap.Error(err))
			response.InternalServerError(c, "database query failed")
		}
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		logger.L().Info("Rejected login", zap.String("username", user.Username))
		response.Unauthorized(c, "invalid username or password")
		return
	}
	if user.Status != 1 {
		response.Forbidden(c, "account is disabled")
		return
	}

	session, ok := issueOperatorSession(c, user)
	if !ok {
		return
	}
	response.SuccessWithMessage(c, "login successful", session)
}

// Register creates an operator and signs it in, so a new client can start
// recording with the returned token.
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User
	err := database.DB.Where("username = ? OR email = ?", username, email).First(&existing).Error
	switch {
	case err == nil:
		if existing.Username == username {
			response.Conflict(c, "username already exists")
		} else {
			response.Conflict(c, "email already registered")
		}
		return
	case !errors.Is(err, gorm.ErrRecordNotFound):
		logger.L().Error("Registration lookup failed", zap.Error(err))
		response.InternalServerError(c, "database query failed")
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		response.InternalServerError(c, "failed to hash password")
		return
	}

	user := models.User{
		Username: username,
		Email:    email,
		Password: hashed,
		Status:   1,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		logger.L().Error("Failed to create operator", zap.String("username", username), zap.Error(err))
		response.InternalServerError(c, "failed to create user")
		return
	}
	logger.L().Info("Operator registered", zap.Uint("user_id", user.ID), zap.String("username", username))

	session, ok := issueOperatorSession(c, user)
	if !ok {
		return
	}
	response.SuccessWithMessage(c, "registration successful", session)
}

// Me returns the signed-in operator and its recordings.
func Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "not logged in")
		return
	}
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		response.Unauthorized(c, "operator no longer exists")
		return
	}
	summary, ok := operatorSummary(c, user.ID)
	if !ok {
		return
	}
	response.Success(c, gin.H{"user": user, "recordings": summary})
}

func issueOperatorSession(c *gin.Context, user models.User) (OperatorSession, bool) {
	issued := time.Now()
	token, err := auth.GenerateToken(user.ID, user.Username, cfg.JWT.ExpireTime)
	if err != nil {
		response.InternalServerError(c, "failed to issue token")
		return OperatorSession{}, false
	}
	summary, ok := operatorSummary(c, user.ID)
	if !ok {
		return OperatorSession{}, false
	}
	return OperatorSession{
		Token:      token,
		ExpiresAt:  issued.Add(time.Duration(cfg.JWT.ExpireTime) * time.Second).Unix(),
		User:       user,
		Recordings: summary,
	}, true
}

// operatorSummary counts the recordings the operator can see; the admin
// sees everyone's.
func operatorSummary(c *gin.Context, userID uint) (database.RecordingSummary, bool) {
	owner := userID
	if utils.IsAdmin(database.DB, userID) {
		owner = 0
	}
	summary, err := recordings.OwnerSummary(c.Request.Context(), owner)
	if err != nil {
		logger.L().Error("Failed to summarize recordings", zap.Uint("user_id", userID), zap.Error(err))
		response.InternalServerError(c, "failed to load recordings")
		return summary, false
	}
	return summary, true
}

func HealthCheck(c *gin.Context) {
	status := "healthy"
	if sqlDB, err := database.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "success",
		"data": gin.H{
			"status":          status,
			"timestamp":       time.Now().Unix(),
			"active_sessions": len(recorder.Manager.SessionIDs()),
		},
	})
}
