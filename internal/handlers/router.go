package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-service/internal/middleware"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

type HandlerManager struct {
	quizHandler    *QuizHandler
	attemptHandler *AttemptHandler
	gradingHandler *GradingHandler
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		quizHandler:    NewQuizHandler(serviceManager.Quiz(), serviceManager.Grading(), logger),
		attemptHandler: NewAttemptHandler(serviceManager.Attempt(), logger),
		gradingHandler: NewGradingHandler(serviceManager.Grading(), logger),
	}
}

// SetupRoutes sets up all API routes. auth guards everything under /api/v1.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1", auth)
	{
		staff := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleInstructor)

		// Quiz authoring exposes answer keys, so students never reach it
		quiz := v1.Group("/lessons/:lesson_id/quiz", staff)
		{
			quiz.GET("", hm.quizHandler.GetQuiz)
			quiz.POST("/ops", hm.quizHandler.ApplyOperation)
			quiz.GET("/validate", hm.quizHandler.ValidateQuiz)
			quiz.GET("/export", hm.quizHandler.ExportAnswerKey)
			quiz.GET("/results/export", hm.quizHandler.ExportResults)
		}

		v1.POST("/lessons/:lesson_id/attempts", hm.attemptHandler.StartAttempt)

		// Attempt routes
		attempts := v1.Group("/attempts")
		{
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.PUT("/:id/answers/:question_id", hm.attemptHandler.SubmitAnswer)
			attempts.POST("/:id/next", hm.attemptHandler.NextQuestion)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.POST("/:id/regrade", staff, hm.gradingHandler.RegradeAttempt)
		}

		grading := v1.Group("/grading")
		{
			grading.POST("/grade", hm.gradingHandler.Grade)
		}
	}
}
