package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"symptom-checker-server/internal/config"
	"symptom-checker-server/internal/middleware"
	"symptom-checker-server/internal/models"
	"symptom-checker-server/internal/session"
	"symptom-checker-server/internal/utils"
)

const refreshKeyPrefix = "refresh:"

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	DB     *gorm.DB
	Tokens session.Store
	Cfg    config.AuthConfig
	Secure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *gorm.DB, tokens session.Store, cfg config.AuthConfig, secureCookies bool) *AuthHandler {
	return &AuthHandler{DB: db, Tokens: tokens, Cfg: cfg, Secure: secureCookies}
}

// RegisterRequest represents the request body for user registration.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"displayName" validate:"max=100"`
	Age         *int   `json:"age" validate:"omitempty,min=0,max=120"`
	Gender      string `json:"gender" validate:"omitempty,oneof=male female other"`
}

// Register handles user registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var existingUser models.User
	if err := h.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		utils.BadRequest(c, "User with this email already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	user := models.User{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Age:         req.Age,
		Gender:      req.Gender,
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}
	if err := h.DB.Create(&user).Error; err != nil {
		utils.InternalServerError(c, "Failed to create user: "+err.Error())
		return
	}

	utils.Created(c, "User registered successfully", user.Sanitize())
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string                `json:"accessToken"`
	RefreshToken string                `json:"refreshToken"`
	User         *models.UserSanitized `json:"user,omitempty"`
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Unauthorized(c, "Invalid email or password")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	if !user.CheckPassword(req.Password) {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	tokens, ok := h.issue(c, &user)
	if !ok {
		return
	}
	sanitized := user.Sanitize()
	tokens.User = &sanitized
	utils.Success(c, "Login successful", tokens)
}

// RefreshTokenRequest represents the request body for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// RefreshToken rotates a refresh token and issues a new access token.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, err := c.Cookie("refresh_token")
	if err != nil || token == "" {
		var req RefreshTokenRequest
		if !utils.BindAndValidate(c, &req) {
			return
		}
		token = req.RefreshToken
	}

	ctx := c.Request.Context()
	userID, err := h.Tokens.Get(ctx, refreshKeyPrefix+token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			utils.Unauthorized(c, "Refresh token not found, expired, or revoked")
		} else {
			utils.InternalServerError(c, "Token store error: "+err.Error())
		}
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.Unauthorized(c, "User for refresh token no longer exists")
		return
	}

	if err := h.Tokens.Delete(ctx, refreshKeyPrefix+token); err != nil {
		utils.InternalServerError(c, "Failed to revoke refresh token: "+err.Error())
		return
	}
	tokens, ok := h.issue(c, &user)
	if !ok {
		return
	}
	utils.Success(c, "Access token refreshed successfully", tokens)
}

// Logout revokes the given refresh token.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req RefreshTokenRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if err := h.Tokens.Delete(c.Request.Context(), refreshKeyPrefix+req.RefreshToken); err != nil {
		utils.InternalServerError(c, "Failed to revoke refresh token: "+err.Error())
		return
	}
	c.SetCookie("refresh_token", "", -1, "/", "", h.Secure, true)
	utils.Success(c, "Logout successful. Refresh token has been invalidated.", nil)
}

// GetProfile handles fetching the currently authenticated user's profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	utils.Success(c, "Profile fetched successfully", user.Sanitize())
}

// UpdateProfileRequest represents the request body for updating user profile.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName" validate:"omitempty,max=100"`
	Age         *int    `json:"age" validate:"omitempty,min=0,max=120"`
	Gender      *string `json:"gender" validate:"omitempty,oneof=male female other"`
}

// UpdateProfile updates the fields that were sent.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Age != nil {
		user.Age = req.Age
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if err := h.DB.Save(user).Error; err != nil {
		utils.InternalServerError(c, "Failed to update profile: "+err.Error())
		return
	}
	utils.Success(c, "Profile updated successfully", user.Sanitize())
}

func (h *AuthHandler) currentUser(c *gin.Context) (*models.User, bool) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return nil, false
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "User profile not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return nil, false
	}
	return &user, true
}

// issue creates a new token pair, stores the refresh token and sets the
// refresh cookie.
func (h *AuthHandler) issue(c *gin.Context, user *models.User) (TokenResponse, bool) {
	access, refresh, err := utils.GenerateTokens(user, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate tokens: "+err.Error())
		return TokenResponse{}, false
	}

	ttl := time.Duration(h.Cfg.RefreshTTLHours) * time.Hour
	if err := h.Tokens.Set(c.Request.Context(), refreshKeyPrefix+refresh, user.ID, ttl); err != nil {
		utils.InternalServerError(c, "Failed to store refresh token: "+err.Error())
		return TokenResponse{}, false
	}

	c.SetCookie("refresh_token", refresh, int(ttl.Seconds()), "/", "", h.Secure, true)
	return TokenResponse{AccessToken: access, RefreshToken: refresh}, true
}
