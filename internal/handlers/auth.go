package handlers

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/restoman/internal/config"
	"github.com/example/restoman/internal/middleware"
	"github.com/example/restoman/internal/models"
	"github.com/example/restoman/internal/services"
	"github.com/example/restoman/internal/utils"
)

const otpValidity = 10 * time.Minute

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer services.Mailer
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, mailer services.Mailer) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, mailer: mailer}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

// Signup creates a new unverified account, or refreshes an existing
// unverified one, and emails a verification OTP. Signing up again while
// unverified overwrites name/mobile/password/OTP instead of creating a
// duplicate.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	email := normalizeEmail(req.Email)
	mobile := strings.TrimSpace(req.Phone)
	if mobile == "" {
		mobile = strings.TrimSpace(req.Mobile)
	}

	if req.Name == "" || email == "" || mobile == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "All fields are required")
	}
	if len(req.Password) < 6 {
		return fiber.NewError(fiber.StatusBadRequest, "Password must be at least 6 characters")
	}
	if !emailPattern.MatchString(email) {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid email format")
	}

	var user models.User
	err := h.db.Where("email = ?", email).First(&user).Error
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if found && user.IsVerified {
		return fiber.NewError(fiber.StatusConflict, "Email already registered")
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	otp := utils.GenerateOTP()
	expiresAt := time.Now().Add(otpValidity)

	user.Name = req.Name
	user.Email = email
	user.Mobile = mobile
	user.PasswordHash = passwordHash
	user.IsVerified = false
	user.OTP = otp
	user.OTPExpiresAt = &expiresAt

	if err := h.db.Save(&user).Error; err != nil {
		return err
	}

	if err := h.mailer.SendOTP(email, "Verify your email - RestoM", otp); err != nil {
		// The account is already persisted; only the dispatch failed.
		return fiber.NewError(fiber.StatusBadGateway,
			"Signup created, but OTP email could not be sent. Please check mail configuration and try again.")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "OTP sent to email",
	})
}

type verifyOtpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyOtp validates a signup OTP and marks the account verified.
func (h *AuthHandler) VerifyOtp(c *fiber.Ctx) error {
	var req verifyOtpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.findUserByEmail(req.Email)
	if err != nil {
		return err
	}

	if err := checkOTP(user, req.OTP); err != nil {
		return err
	}

	user.IsVerified = true
	user.OTP = ""
	user.OTPExpiresAt = nil
	if err := h.db.Save(user).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "Email verified successfully"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a verified user and issues a session token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.findUserByEmail(req.Email)
	if err != nil {
		return err
	}

	if !user.IsVerified {
		return fiber.NewError(fiber.StatusForbidden, "Email not verified")
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    publicUser(user),
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword issues a fresh reset OTP and emails it. The OTP is
// persisted before dispatch, so a mail failure leaves it usable.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.findUserByEmail(req.Email)
	if err != nil {
		return err
	}

	otp := utils.GenerateOTP()
	expiresAt := time.Now().Add(otpValidity)
	user.OTP = otp
	user.OTPExpiresAt = &expiresAt
	if err := h.db.Save(user).Error; err != nil {
		return err
	}

	if err := h.mailer.SendOTP(user.Email, "Reset your password - RestoM", otp); err != nil {
		return fiber.NewError(fiber.StatusBadGateway,
			"Failed to send OTP email. Please verify mail configuration.")
	}

	return c.JSON(fiber.Map{"message": "OTP sent to email"})
}

// VerifyResetOtp checks a reset OTP without consuming it, so the
// subsequent reset-password call can be a separate request. The code
// stays valid until ResetPassword clears it or it expires.
func (h *AuthHandler) VerifyResetOtp(c *fiber.Ctx) error {
	var req verifyOtpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.findUserByEmail(req.Email)
	if err != nil {
		return err
	}

	if err := checkOTP(user, req.OTP); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "OTP verified"})
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

// ResetPassword replaces the password hash and clears any pending OTP.
// The earlier VerifyResetOtp call is trusted; the OTP is not re-checked
// here.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.findUserByEmail(req.Email)
	if err != nil {
		return err
	}

	if len(req.NewPassword) < 6 {
		return fiber.NewError(fiber.StatusBadRequest, "Password must be at least 6 characters")
	}

	passwordHash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	user.PasswordHash = passwordHash
	user.OTP = ""
	user.OTPExpiresAt = nil
	if err := h.db.Save(user).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "Password reset successfully"})
}

// Me returns the public projection of the authenticated user.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"user": publicUser(&user)})
}

func (h *AuthHandler) findUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := h.db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		return nil, err
	}
	return &user, nil
}

// checkOTP validates a submitted code against the user's pending OTP.
// Mismatch is reported before expiry, matching the verification order
// the clients rely on.
func checkOTP(user *models.User, otp string) error {
	if user.OTP == "" || user.OTP != strings.TrimSpace(otp) {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid OTP")
	}
	if user.OTPExpiresAt == nil || user.OTPExpiresAt.Before(time.Now()) {
		return fiber.NewError(fiber.StatusBadRequest, "OTP expired")
	}
	return nil
}

func publicUser(user *models.User) fiber.Map {
	return fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"phone": user.Mobile,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
