package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice/api/internal/models"
	"backoffice/api/internal/service"
)

type createCategoryRequest struct {
	Name        string  `json:"name" binding:"required,min=3,max=20"`
	Description *string `json:"description"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=3,max=20"`
	Description *string `json:"description"`
}

type categoryIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

func (h HandlerSet) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	category, err := h.categories.Create(c.Request.Context(), service.CreateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category.ToView())
}

func (h HandlerSet) ListCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	views := make([]models.CategoryView, 0, len(categories))
	for _, category := range categories {
		views = append(views, category.ToView())
	}
	c.JSON(http.StatusOK, views)
}

func (h HandlerSet) GetCategory(c *gin.Context) {
	var param categoryIDParam
	if err := c.ShouldBindUri(&param); err != nil {
		h.respondBindError(c, err)
		return
	}

	category, err := h.categories.GetByID(c.Request.Context(), param.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category.ToView())
}

func (h HandlerSet) UpdateCategory(c *gin.Context) {
	var req updateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	category, err := h.categories.Update(c.Request.Context(), c.Param("id"), service.UpdateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category.ToView())
}

func (h HandlerSet) DeleteCategory(c *gin.Context) {
	category, err := h.categories.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category.ToView())
}
