package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/mclass/internal/app/models/dto"
	"github.com/yigit/mclass/internal/app/services"
	"github.com/yigit/mclass/internal/middleware"
)

// ApplyController handles enrollment requests
type ApplyController struct {
	enrollmentService services.EnrollmentService
	logger            zerolog.Logger
}

// NewApplyController creates a new ApplyController
func NewApplyController(enrollmentService services.EnrollmentService, logger zerolog.Logger) *ApplyController {
	return &ApplyController{
		enrollmentService: enrollmentService,
		logger:            logger,
	}
}

// Apply enrolls the caller in a class
// @Summary Apply to a class
// @Description Creates the caller's application and takes a seat according to the seat policy
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Class ID"
// @Success 201 {object} dto.APIResponse{data=dto.ApplyResponse} "Applied successfully"
// @Failure 400 {object} dto.ErrorResponse "Class is full or enrollment closed"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Class not found"
// @Failure 409 {object} dto.ErrorResponse "Already applied"
// @Failure 429 {object} dto.ErrorResponse "Too many requests or class busy"
// @Router /classes/{id}/apply [post]
func (c *ApplyController) Apply(ctx *gin.Context) {
	classID, ok := middleware.BindID(ctx, "id")
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(ctx)

	apply, err := c.enrollmentService.Enroll(ctx.Request.Context(), classID, principal.UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewApplyResponse(apply), "Applied successfully"))
}

// Approve approves a pending application
// @Summary Approve an application
// @Description Moves a PENDING application to APPROVED
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} dto.APIResponse{data=dto.ApplyResponse} "Application approved"
// @Failure 400 {object} dto.ErrorResponse "Already approved, invalid transition or class full"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Router /applications/{id}/approve [post]
func (c *ApplyController) Approve(ctx *gin.Context) {
	applyID, ok := middleware.BindID(ctx, "id")
	if !ok {
		return
	}

	apply, err := c.enrollmentService.Approve(ctx.Request.Context(), applyID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewApplyResponse(apply), "Application approved"))
}

// Cancel withdraws an application
// @Summary Cancel an application
// @Description Deletes an application owned by the caller (or any, for admins) and frees its seat
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} dto.APIResponse "Application cancelled"
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Router /applications/{id} [delete]
func (c *ApplyController) Cancel(ctx *gin.Context) {
	applyID, ok := middleware.BindID(ctx, "id")
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(ctx)

	if err := c.enrollmentService.Cancel(ctx.Request.Context(), applyID, principal); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Application cancelled"))
}

// ListMine lists the caller's applications
// @Summary My applications
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.ApplyResponse}
// @Router /applications/me [get]
func (c *ApplyController) ListMine(ctx *gin.Context) {
	principal, _ := middleware.GetPrincipal(ctx)

	applies, err := c.enrollmentService.ListMyApplications(ctx.Request.Context(), principal.UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewApplyResponses(applies), ""))
}

// ListByClass lists a class's applications
// @Summary Applications of a class
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Class ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.ApplyResponse}
// @Failure 404 {object} dto.ErrorResponse "Class not found"
// @Router /classes/{id}/applications [get]
func (c *ApplyController) ListByClass(ctx *gin.Context) {
	classID, ok := middleware.BindID(ctx, "id")
	if !ok {
		return
	}

	applies, err := c.enrollmentService.ListByClass(ctx.Request.Context(), classID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewApplyResponses(applies), ""))
}
