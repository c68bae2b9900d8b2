package v1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/portfolio-service/internal/core/domain"
	logicv1 "github.com/duynhne/portfolio-service/internal/logic/v1"
	"github.com/duynhne/portfolio-service/internal/logger"
	"github.com/duynhne/portfolio-service/middleware"
)

const userKey = "portfolio.user"

// Handler groups HTTP handlers for the portfolio API v1.
// Dependencies are injected via the constructor, no global state.
type Handler struct {
	auth     *logicv1.AuthService
	projects *logicv1.ProjectService
	skills   *logicv1.SkillService
	contacts *logicv1.ContactService

	maxUploadBytes int64
}

// Services bundles the business logic the handlers delegate to.
type Services struct {
	Auth     *logicv1.AuthService
	Projects *logicv1.ProjectService
	Skills   *logicv1.SkillService
	Contacts *logicv1.ContactService
}

// NewHandler creates a new Handler. Uploads larger than maxUploadBytes are rejected.
func NewHandler(s Services, maxUploadBytes int64) *Handler {
	return &Handler{
		auth:           s.Auth,
		projects:       s.Projects,
		skills:         s.Skills,
		contacts:       s.Contacts,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes registers all portfolio API v1 routes on the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	authed := h.RequireAuth()
	admin := h.RequireAdmin()

	auth := rg.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.GET("/profile/public", h.PublicProfile)
	auth.GET("/me", authed, h.GetMe)
	auth.PATCH("/updateprofile", authed, h.UpdateProfile)
	auth.POST("/avatar", authed, h.UploadAvatar)
	auth.POST("/change-password", authed, h.ChangePassword)

	projects := rg.Group("/projects")
	projects.GET("", h.ListProjects)
	projects.GET("/:id", h.GetProject)
	projects.POST("", authed, admin, h.CreateProject)
	projects.POST("/upload-image", authed, admin, h.UploadProjectImage)
	projects.PATCH("/:id", authed, admin, h.UpdateProject)
	projects.DELETE("/:id", authed, admin, h.DeleteProject)

	skills := rg.Group("/skills")
	skills.GET("", h.ListSkills)
	skills.GET("/category/:category", h.ListSkillsByCategory)
	skills.GET("/:id", h.GetSkill)
	skills.POST("", authed, admin, h.CreateSkill)
	skills.PATCH("/:id", authed, admin, h.UpdateSkill)
	skills.DELETE("/:id", authed, admin, h.DeleteSkill)

	contact := rg.Group("/contact")
	contact.POST("", h.SubmitContact)
	contact.GET("", authed, admin, h.ListContacts)
	contact.GET("/:id", authed, admin, h.GetContact)
	contact.PATCH("/:id", authed, admin, h.UpdateContactStatus)
	contact.DELETE("/:id", authed, admin, h.DeleteContact)
}

func startSpan(c *gin.Context) (context.Context, trace.Span) {
	return middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.FullPath()),
	))
}

// currentUser returns the user attached by RequireAuth, or nil on public routes.
func currentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// writeError maps business errors to HTTP responses.
func writeError(ctx context.Context, c *gin.Context, span trace.Span, err error, msg string) {
	span.RecordError(err)
	log := logger.FromContext(ctx)

	var verr *logicv1.ValidationError
	var dup *domain.DuplicateKeyError
	var nf *logicv1.NotFoundError
	switch {
	case errors.As(err, &verr):
		log.Warn().Err(err).Msg(msg)
		fail(c, http.StatusBadRequest, verr.Error())
	case errors.As(err, &dup):
		log.Warn().Err(err).Msg(msg)
		fail(c, http.StatusBadRequest, fmt.Sprintf("Duplicate value entered for %s field, please choose another value", dup.Field))
	case errors.Is(err, logicv1.ErrUserExists):
		log.Warn().Err(err).Msg(msg)
		fail(c, http.StatusBadRequest, "User already exists with this email")
	case errors.As(err, &nf):
		fail(c, http.StatusNotFound, nf.Error())
	case errors.Is(err, logicv1.ErrUserNotFound):
		fail(c, http.StatusNotFound, "User not found")
	case errors.Is(err, logicv1.ErrIncorrectPassword):
		fail(c, http.StatusUnauthorized, "Current password is incorrect")
	case errors.Is(err, logicv1.ErrForbidden):
		log.Warn().Err(err).Msg(msg)
		fail(c, http.StatusForbidden, "Not authorized to access this route. Admin permission required.")
	case errors.Is(err, logicv1.ErrNoFile):
		fail(c, http.StatusBadRequest, "No file uploaded")
	case errors.Is(err, logicv1.ErrUnsupportedImage):
		fail(c, http.StatusBadRequest, "Only image files are allowed")
	case errors.Is(err, logicv1.ErrStorage):
		log.Error().Err(err).Msg(msg)
		fail(c, http.StatusInternalServerError, "Error uploading image to storage")
	default:
		log.Error().Err(err).Msg(msg)
		fail(c, http.StatusInternalServerError, "Internal server error")
	}
}

// bindJSON decodes the request body into dst and answers 400 on failure.
func bindJSON(ctx context.Context, c *gin.Context, span trace.Span, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		span.RecordError(err)
		logger.FromContext(ctx).Warn().Err(err).Msg("Invalid request")
		fail(c, http.StatusBadRequest, err.Error())
		return false
	}
	span.SetAttributes(attribute.Bool("request.valid", true))
	return true
}

// readUpload reads a multipart file field. A missing field yields a nil Upload.
func (h *Handler) readUpload(c *gin.Context, field string) (*logicv1.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, &logicv1.ValidationError{Messages: []string{err.Error()}}
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		return nil, &logicv1.ValidationError{Messages: []string{
			fmt.Sprintf("File too large, the limit is %d MB", h.maxUploadBytes>>20),
		}}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &logicv1.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

var reservedQueryKeys = map[string]bool{"page": true, "sort": true, "limit": true, "fields": true}

// listQuery reads filter, sort and paging parameters. Every query parameter
// other than page, sort, limit and fields is treated as an equality filter.
func listQuery(c *gin.Context, defaultLimit int) domain.ListQuery {
	q := domain.ListQuery{Filter: map[string]string{}, Page: 1, Limit: defaultLimit}
	for key, values := range c.Request.URL.Query() {
		if reservedQueryKeys[key] || len(values) == 0 {
			continue
		}
		q.Filter[key] = values[0]
	}
	if raw := c.Query("sort"); raw != "" {
		for _, f := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
			desc := strings.HasPrefix(f, "-")
			q.Sort = append(q.Sort, domain.SortField{Field: strings.TrimPrefix(f, "-"), Desc: desc})
		}
	}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		q.Page = n
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		q.Limit = n
	}
	return q
}
