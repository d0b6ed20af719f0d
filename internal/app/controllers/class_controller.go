package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/mclass/internal/app/models/dto"
	"github.com/yigit/mclass/internal/app/services"
	"github.com/yigit/mclass/internal/middleware"
	"github.com/yigit/mclass/internal/pkg/helpers"
)

// ClassController handles class related requests
type ClassController struct {
	classService services.ClassService
	logger       zerolog.Logger
}

// NewClassController creates a new ClassController
func NewClassController(classService services.ClassService, logger zerolog.Logger) *ClassController {
	return &ClassController{
		classService: classService,
		logger:       logger,
	}
}

// CreateClass handles class creation
// @Summary Create a class
// @Description Creates a class hosted by the calling admin
// @Tags classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateClassRequest true "Class information"
// @Success 201 {object} dto.APIResponse{data=dto.ClassResponse} "Class created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - User does not have permission"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /classes [post]
func (c *ClassController) CreateClass(ctx *gin.Context) {
	var req dto.CreateClassRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	principal, _ := middleware.GetPrincipal(ctx)

	class, err := c.classService.CreateClass(ctx.Request.Context(), principal.UserID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewClassResponse(class), "Class created successfully"))
}

// GetClass handles fetching a class
// @Summary Get class by ID
// @Description Retrieves a class with its seat counter
// @Tags classes
// @Produce json
// @Param id path int true "Class ID"
// @Success 200 {object} dto.APIResponse{data=dto.ClassResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid class ID"
// @Failure 404 {object} dto.ErrorResponse "Class not found"
// @Router /classes/{id} [get]
func (c *ClassController) GetClass(ctx *gin.Context) {
	id, ok := middleware.BindID(ctx, "id")
	if !ok {
		return
	}

	class, err := c.classService.GetClass(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewClassResponse(class), ""))
}

// ListClasses handles class listing
// @Summary List classes
// @Description Lists classes ordered by start time
// @Tags classes
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.ClassListResponse}
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /classes [get]
func (c *ClassController) ListClasses(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)

	resp, err := c.classService.ListClasses(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// UpdateClass handles class updates
// @Summary Update a class
// @Description Updates the given fields; maxParticipants cannot drop below seats already taken
// @Tags classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Class ID"
// @Param request body dto.UpdateClassRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.ClassResponse} "Class updated successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 404 {object} dto.ErrorResponse "Class not found"
// @Failure 409 {object} dto.ErrorResponse "Capacity below seats taken"
// @Failure 429 {object} dto.ErrorResponse "Class is busy"
// @Router /classes/{id} [put]
func (c *ClassController) UpdateClass(ctx *gin.Context) {
	id, ok := middleware.BindID(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateClassRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	class, err := c.classService.UpdateClass(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewClassResponse(class), "Class updated successfully"))
}

// DeleteClass handles class deletion
// @Summary Delete a class
// @Description Deletes a class and its applications
// @Tags classes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Class ID"
// @Success 200 {object} dto.APIResponse "Class deleted successfully"
// @Failure 404 {object} dto.ErrorResponse "Class not found"
// @Router /classes/{id} [delete]
func (c *ClassController) DeleteClass(ctx *gin.Context) {
	id, ok := middleware.BindID(ctx, "id")
	if !ok {
		return
	}

	if err := c.classService.DeleteClass(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Class deleted successfully"))
}
