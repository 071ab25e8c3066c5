package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-service/internal/builder"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

type QuizHandler struct {
	BaseHandler
	quizService    services.QuizService
	gradingService services.GradingService
}

func NewQuizHandler(quizService services.QuizService, gradingService services.GradingService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler:    NewBaseHandler(logger),
		quizService:    quizService,
		gradingService: gradingService,
	}
}

// GetQuiz returns the quiz document of a lesson
// @Summary Get quiz
// @Tags quiz
// @Produce json
// @Param lesson_id path string true "Lesson ID"
// @Success 200 {object} models.QuizDocument
// @Failure 404 {object} ErrorResponse
// @Router /lessons/{lesson_id}/quiz [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	lessonID := ParseStringIDParam(c, "lesson_id")
	if lessonID == "" {
		return
	}

	doc, err := h.quizService.GetDocument(c.Request.Context(), lessonID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// ApplyOperation runs one builder operation and saves the result
// @Summary Edit quiz
// @Tags quiz
// @Accept json
// @Produce json
// @Param lesson_id path string true "Lesson ID"
// @Param op body builder.Op true "Operation"
// @Success 200 {object} services.ApplyResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /lessons/{lesson_id}/quiz/ops [post]
func (h *QuizHandler) ApplyOperation(c *gin.Context) {
	lessonID := ParseStringIDParam(c, "lesson_id")
	if lessonID == "" {
		return
	}
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var op builder.Op
	if !bindJSON(c, &op) {
		return
	}

	h.LogRequest(c, "Applying quiz operation", "lesson_id", lessonID, "op", op.Op)

	resp, err := h.quizService.Apply(c.Request.Context(), lessonID, userID, op)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ValidateQuiz lists authoring warnings
// @Summary Validate quiz
// @Tags quiz
// @Produce json
// @Param lesson_id path string true "Lesson ID"
// @Success 200 {object} services.ValidationReport
// @Router /lessons/{lesson_id}/quiz/validate [get]
func (h *QuizHandler) ValidateQuiz(c *gin.Context) {
	lessonID := ParseStringIDParam(c, "lesson_id")
	if lessonID == "" {
		return
	}

	report, err := h.quizService.Validate(c.Request.Context(), lessonID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *QuizHandler) ExportAnswerKey(c *gin.Context) {
	lessonID := ParseStringIDParam(c, "lesson_id")
	if lessonID == "" {
		return
	}

	h.LogRequest(c, "Exporting answer key", "lesson_id", lessonID)

	data, err := h.gradingService.ExportAnswerKey(c.Request.Context(), lessonID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.sendWorkbook(c, "answer-key-"+lessonID+".xlsx", data)
}

func (h *QuizHandler) ExportResults(c *gin.Context) {
	lessonID := ParseStringIDParam(c, "lesson_id")
	if lessonID == "" {
		return
	}

	h.LogRequest(c, "Exporting quiz results", "lesson_id", lessonID)

	data, err := h.gradingService.ExportResults(c.Request.Context(), lessonID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.sendWorkbook(c, "results-"+lessonID+".xlsx", data)
}
