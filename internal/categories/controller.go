package categories

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eventhub/internal/shared/utils/response"
)

type Controller interface {
	CreateCategory(c *gin.Context)
	GetCategory(c *gin.Context)
	GetAllCategories(c *gin.Context)
	UpdateCategory(c *gin.Context)
	DeleteCategory(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func adminUUID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw.(string))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (ctrl *controller) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	adminID, ok := adminUUID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Admin not authenticated", nil, nil)
		return
	}

	category, err := ctrl.service.CreateCategory(c.Request.Context(), adminID, req)
	if err != nil {
		statusCode := http.StatusBadRequest
		if errors.Is(err, ErrCategoryNameTaken) {
			statusCode = http.StatusConflict
		}
		response.RespondJSON(c, "error", statusCode, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Category created successfully", category, nil)
}

func (ctrl *controller) GetCategory(c *gin.Context) {
	category, err := ctrl.service.GetCategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrCategoryNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(c, "error", statusCode, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Category retrieved successfully", category, nil)
}

func (ctrl *controller) GetAllCategories(c *gin.Context) {
	result, err := ctrl.service.GetAllCategories(c.Request.Context())
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Categories retrieved successfully", result, nil)
}

func (ctrl *controller) UpdateCategory(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid category ID", nil, err.Error())
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	adminID, ok := adminUUID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Admin not authenticated", nil, nil)
		return
	}

	category, err := ctrl.service.UpdateCategory(c.Request.Context(), categoryID, adminID, req)
	if err != nil {
		statusCode := http.StatusBadRequest
		switch {
		case errors.Is(err, ErrCategoryNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, ErrCategoryNameTaken):
			statusCode = http.StatusConflict
		}
		response.RespondJSON(c, "error", statusCode, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Category updated successfully", category, nil)
}

func (ctrl *controller) DeleteCategory(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid category ID", nil, err.Error())
		return
	}

	if err := ctrl.service.DeleteCategory(c.Request.Context(), categoryID); err != nil {
		statusCode := http.StatusBadRequest
		switch {
		case errors.Is(err, ErrCategoryNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, ErrCategoryInUse):
			statusCode = http.StatusConflict
		}
		response.RespondJSON(c, "error", statusCode, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Category deleted successfully", nil, nil)
}
