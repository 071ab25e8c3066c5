package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
}

func NewGradingHandler(gradingService services.GradingService, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
	}
}

// Grade scores a submission against a quiz document sent in the body
// @Summary Grade submission
// @Tags grading
// @Accept json
// @Produce json
// @Param request body services.GradeRequest true "Document and submission"
// @Success 200 {object} models.GradeResult
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /grading/grade [post]
func (h *GradingHandler) Grade(c *gin.Context) {
	var req services.GradeRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.gradingService.Grade(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RegradeAttempt grades a submitted attempt again against the current quiz
// @Summary Regrade attempt
// @Tags grading
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} SuccessResponse{data=models.GradeResult}
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/regrade [post]
func (h *GradingHandler) RegradeAttempt(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Regrading attempt", "attempt_id", attemptID)

	result, err := h.gradingService.Regrade(c.Request.Context(), attemptID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Attempt regraded",
		Data:    result,
	})
}
