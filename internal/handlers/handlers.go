package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"backoffice/api/internal/apperror"
	"backoffice/api/internal/config"
	"backoffice/api/internal/middleware"
	"backoffice/api/internal/models"
	"backoffice/api/internal/service"
)

type Services struct {
	Auth       *service.AuthService
	Admins     *service.AdminService
	Categories *service.CategoryService
}

// HealthChecks are optional; a nil check reports "disabled".
type HealthChecks struct {
	Database func(ctx context.Context) error
	Cache    func(ctx context.Context) error
}

type HandlerSet struct {
	log        zerolog.Logger
	cfg        *config.AppConfig
	auth       *service.AuthService
	admins     *service.AdminService
	categories *service.CategoryService
	health     HealthChecks
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, services Services, health HealthChecks) HandlerSet {
	return HandlerSet{
		log:        log,
		cfg:        cfg,
		auth:       services.Auth,
		admins:     services.Admins,
		categories: services.Categories,
		health:     health,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/health", h.Health)

	requireAuth := middleware.Auth(h.auth)
	superAdminOnly := middleware.RequireRoles(models.RoleSuperAdmin)

	auth := router.Group("/auth")
	{
		auth.POST("/register", h.RegisterAccount)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", middleware.RefreshAuth(h.auth), h.Refresh)
		auth.POST("/logout", requireAuth, h.Logout)
		auth.GET("/me", requireAuth, h.Me)
	}

	admins := router.Group("/admins")
	admins.Use(requireAuth)
	{
		admins.GET("", h.ListAdmins)
		admins.POST("", superAdminOnly, h.CreateAdmin)
		admins.GET("/by-email/:email", h.GetAdminByEmail)
		admins.GET("/:id", h.GetAdmin)
		admins.PATCH("/:id", superAdminOnly, h.UpdateAdmin)
		admins.DELETE("/:id", superAdminOnly, h.DeleteAdmin)
	}

	categories := router.Group("/categories")
	categories.Use(requireAuth)
	{
		categories.POST("", h.CreateCategory)
		categories.GET("", h.ListCategories)
		categories.GET("/:id", h.GetCategory)
		categories.PATCH("/:id", h.UpdateCategory)
		categories.DELETE("/:id", h.DeleteCategory)
	}
}

// respondError writes the uniform error body. Unclassified errors are logged
// and reported as a bare 500.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	status := apperror.StatusOf(err)
	if status >= 500 {
		h.log.Error().Err(err).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString("X-Request-Id")).
			Msg("request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, apperror.BodyOf(err))
}

func (h HandlerSet) respondBindError(c *gin.Context, err error) {
	h.respondError(c, apperror.Validation(bindMessage(err)))
}

func bindMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return "Invalid request body"
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fieldMessage(fe))
	}
	return strings.Join(messages, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " should not be empty"
	case "email":
		return field + " must be an email"
	case "min":
		return fmt.Sprintf("%s must be longer than or equal to %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be shorter than or equal to %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid":
		return field + " must be a UUID"
	}
	return field + " is invalid"
}

// lowerFirst turns a Go field name into its JSON spelling: "IsActive" to
// "isActive", "ID" to "id".
func lowerFirst(s string) string {
	runes := []rune(s)
	for i := range runes {
		if !unicode.IsUpper(runes[i]) {
			break
		}
		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
