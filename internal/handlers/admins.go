package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice/api/internal/models"
	"backoffice/api/internal/service"
)

type createAdminRequest struct {
	Email    string           `json:"email" binding:"required,email"`
	Name     *string          `json:"name"`
	Password string           `json:"password" binding:"required,min=6,max=72"`
	Role     models.AdminRole `json:"role" binding:"required,oneof=admin editor"`
	IsActive *bool            `json:"isActive"`
}

type updateAdminRequest struct {
	Email    *string           `json:"email" binding:"omitempty,email"`
	Name     *string           `json:"name"`
	Password *string           `json:"password" binding:"omitempty,min=6,max=72"`
	Role     *models.AdminRole `json:"role" binding:"omitempty,oneof=admin editor"`
	IsActive *bool             `json:"isActive"`
}

type adminEmailParam struct {
	Email string `uri:"email" binding:"required,email"`
}

func (h HandlerSet) ListAdmins(c *gin.Context) {
	admins, err := h.admins.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	views := make([]models.AdminView, 0, len(admins))
	for _, admin := range admins {
		views = append(views, admin.ToView())
	}
	c.JSON(http.StatusOK, views)
}

func (h HandlerSet) CreateAdmin(c *gin.Context) {
	var req createAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	admin, err := h.admins.Create(c.Request.Context(), service.CreateAdminInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, admin.ToView())
}

func (h HandlerSet) GetAdminByEmail(c *gin.Context) {
	var param adminEmailParam
	if err := c.ShouldBindUri(&param); err != nil {
		h.respondBindError(c, err)
		return
	}

	admin, err := h.admins.GetByEmail(c.Request.Context(), param.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, admin.ToView())
}

func (h HandlerSet) GetAdmin(c *gin.Context) {
	admin, err := h.admins.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, admin.ToView())
}

func (h HandlerSet) UpdateAdmin(c *gin.Context) {
	var req updateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	admin, err := h.admins.Update(c.Request.Context(), c.Param("id"), service.UpdateAdminInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, admin.ToView())
}

func (h HandlerSet) DeleteAdmin(c *gin.Context) {
	admin, err := h.admins.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, admin.ToView())
}
