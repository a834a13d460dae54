package models

import (
	"time"
)

// User represents a customer account. Email is stored lowercased and
// trimmed; Mobile is normalized at the signup boundary from either the
// "phone" or "mobile" request field.
type User struct {
	BaseModel
	Name         string `json:"name"`
	Email        string `gorm:"uniqueIndex" json:"email"`
	Mobile       string `json:"mobile"`
	PasswordHash string `json:"-"`
	IsVerified   bool   `json:"is_verified"`

	// Pending one-time passcode. Cleared on successful verification
	// and on password reset; a verified user never carries one.
	OTP          string     `gorm:"column:otp" json:"-"`
	OTPExpiresAt *time.Time `gorm:"column:otp_expires_at" json:"-"`
}
