package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/yashashwi-s/VirtualTradingPlatform/internal/delivery/http/dto"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/domain"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/middleware"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/usecase"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userRepo       domain.UserRepository
	tradingService *usecase.TradingService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo domain.UserRepository, tradingService *usecase.TradingService) *AuthHandler {
	return &AuthHandler{
		userRepo:       userRepo,
		tradingService: tradingService,
	}
}

// Register handles user registration. Every new user gets a default
// portfolio seeded with the configured starting cash.
// POST /api/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	if req.Email == "" || req.Username == "" || req.Password == "" {
		return BadRequestResponse(c, "Email, username and password are required")
	}
	if !strings.Contains(req.Email, "@") {
		return BadRequestResponse(c, "Invalid email address")
	}
	if len(req.Password) < 8 {
		return BadRequestResponse(c, "Password must be at least 8 characters")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return ConflictResponse(c, "Username already taken")
	}
	if _, err := h.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return ConflictResponse(c, "Email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to hash password", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.userRepo.Create(ctx, user); err != nil {
		return InternalServerErrorResponse(c, "Failed to create user", err)
	}

	portfolio, err := h.tradingService.CreatePortfolio(ctx, user.ID, "Default Portfolio")
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to create default portfolio", err)
	}

	return CreatedResponse(c, map[string]interface{}{
		"user":      userOutput(user),
		"portfolio": portfolio,
	})
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	if req.Username == "" || req.Password == "" {
		return BadRequestResponse(c, "Username and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Accept either the username or the registered email
	user, err := h.userRepo.GetByUsername(ctx, req.Username)
	if err != nil && strings.Contains(req.Username, "@") {
		user, err = h.userRepo.GetByEmail(ctx, strings.ToLower(req.Username))
	}
	if err != nil {
		return UnauthorizedResponse(c, "Invalid credentials")
	}
	if !user.IsActive {
		return UnauthorizedResponse(c, "Account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return UnauthorizedResponse(c, "Invalid credentials")
	}

	token, err := middleware.GenerateJWT(user.ID)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to generate token", err)
	}

	cookie := &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: http.SameSiteStrictMode,
		MaxAge:   86400, // 24 hours
	}
	c.SetCookie(cookie)

	return SuccessResponse(c, dto.LoginResponse{
		Token: token,
		User:  userOutput(user),
	})
}

// Logout handles user logout
// POST /api/auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie := &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1, // Delete cookie
	}
	c.SetCookie(cookie)

	return SuccessResponse(c, map[string]string{"message": "Logged out"})
}

// Me returns the authenticated user's profile
// GET /api/auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, userOutput(user))
}

func userOutput(user *domain.User) *dto.UserOutput {
	return &dto.UserOutput{
		ID:        user.ID.String(),
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}
