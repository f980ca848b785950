package utils

import (
	"sessionrecorder/backend/internal/models"

	"gorm.io/gorm"
)

// AdminUsername is the operator seeded on first start.
const AdminUsername = "admin"

// IsAdmin checks if the user with given ID is an admin user
func IsAdmin(db *gorm.DB, userID uint) bool {
	var user models.User
	err := db.First(&user, userID).Error
	if err != nil {
		return false
	}
	return user.Username == AdminUsername
}

// CanAccessRecording reports whether the user owns the recording or is
// an admin.
func CanAccessRecording(db *gorm.DB, userID uint, rec *models.Recording) bool {
	return rec.UserID == userID || IsAdmin(db, userID)
}
