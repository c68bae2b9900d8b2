package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/duynhne/portfolio-service/internal/core/domain"
	logicv1 "github.com/duynhne/portfolio-service/internal/logic/v1"
	"github.com/duynhne/portfolio-service/internal/logger"
)

// RequireAuth resolves the bearer token to a user and stores it on the
// gin context. Requests without a valid session get 401.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := startSpan(c)
		defer span.End()
		log := logger.FromContext(ctx)

		// Expect "Bearer <token>"
		const bearerPrefix = "Bearer "
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) || len(header) == len(bearerPrefix) {
			span.SetAttributes(attribute.Bool("auth.present", false))
			fail(c, http.StatusUnauthorized, "Authentication failed: No token provided")
			return
		}
		token := strings.TrimSpace(header[len(bearerPrefix):])

		user, err := h.auth.Authenticate(ctx, token)
		if err != nil {
			span.RecordError(err)
			log.Warn().Err(err).Msg("Authentication failed")
			switch {
			case errors.Is(err, logicv1.ErrSessionExpired):
				fail(c, http.StatusUnauthorized, "Authentication failed: Token expired")
			case errors.Is(err, logicv1.ErrInvalidToken):
				fail(c, http.StatusUnauthorized, "Authentication failed: Invalid token format")
			case errors.Is(err, logicv1.ErrSessionNotFound):
				fail(c, http.StatusUnauthorized, "Authentication failed: Invalid token")
			case errors.Is(err, logicv1.ErrUserNotFound):
				fail(c, http.StatusUnauthorized, "Authentication failed: User not found")
			default:
				log.Error().Err(err).Msg("Authentication middleware error")
				fail(c, http.StatusInternalServerError, "Server error during authentication")
			}
			return
		}

		span.SetAttributes(attribute.String("user.id", user.ID))
		c.Set(userKey, user)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if !user.IsAdmin() {
			role := ""
			if user != nil {
				role = user.Role
			}
			logger.FromContext(c.Request.Context()).Warn().
				Str("role", role).
				Msg("Authorization failed: admin role required")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success":     false,
				"message":     "Not authorized to access this route. Admin permission required.",
				"currentRole": role,
			})
			return
		}
		c.Next()
	}
}

// Register handles HTTP request for user registration.
func (h *Handler) Register(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	var req domain.RegisterRequest
	if !bindJSON(ctx, c, span, &req) {
		return
	}

	response, err := h.auth.Register(ctx, req)
	if err != nil {
		writeError(ctx, c, span, err, "Registration failed")
		return
	}

	logger.FromContext(ctx).Info().Str("user_id", response.User.ID).Msg("Registration successful")
	c.JSON(http.StatusCreated, response)
}

// Login handles HTTP request for user login.
func (h *Handler) Login(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()
	log := logger.FromContext(ctx)

	var req domain.LoginRequest
	if !bindJSON(ctx, c, span, &req) {
		return
	}

	response, err := h.auth.Login(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, logicv1.ErrInvalidCredentials), errors.Is(err, logicv1.ErrUserNotFound):
			// Both cases answer the same so the response does not reveal which emails exist.
			span.RecordError(err)
			log.Warn().Err(err).Msg("Login failed")
			fail(c, http.StatusUnauthorized, "Invalid credentials")
		default:
			writeError(ctx, c, span, err, "Login failed")
		}
		return
	}

	log.Info().Str("user_id", response.User.ID).Msg("Login successful")
	c.JSON(http.StatusOK, response)
}

// GetMe returns the user behind the bearer token.
// GET /api/auth/me
// Authorization: Bearer <token>
func (h *Handler) GetMe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "user": currentUser(c)})
}

// UpdateProfile handles PATCH /api/auth/updateprofile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	var req domain.ProfileUpdate
	if !bindJSON(ctx, c, span, &req) {
		return
	}

	user, err := h.auth.UpdateProfile(ctx, currentUser(c).ID, req)
	if err != nil {
		writeError(ctx, c, span, err, "Profile update failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// UploadAvatar handles the multipart `avatar` upload.
func (h *Handler) UploadAvatar(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	file, err := h.readUpload(c, "avatar")
	if err != nil {
		writeError(ctx, c, span, err, "Avatar upload failed")
		return
	}
	url, err := h.auth.UploadAvatar(ctx, currentUser(c).ID, file)
	if err != nil {
		writeError(ctx, c, span, err, "Avatar upload failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"profileImage": url}})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	var req domain.ChangePasswordRequest
	if !bindJSON(ctx, c, span, &req) {
		return
	}
	if err := h.auth.ChangePassword(ctx, currentUser(c).ID, req); err != nil {
		writeError(ctx, c, span, err, "Password change failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated successfully"})
}

// PublicProfile returns the portfolio owner's profile to anonymous visitors.
func (h *Handler) PublicProfile(c *gin.Context) {
	ctx, span := startSpan(c)
	defer span.End()

	profile, err := h.auth.PublicProfile(ctx)
	if err != nil {
		if errors.Is(err, logicv1.ErrUserNotFound) {
			fail(c, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(ctx, c, span, err, "Public profile failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": profile})
}
