package services

import (
	"github.com/SAP-F-2025/quiz-service/internal/builder"
	"github.com/SAP-F-2025/quiz-service/internal/grading"
)

// ServiceManager hands the handlers their services
type ServiceManager interface {
	Quiz() QuizService
	Attempt() AttemptService
	Grading() GradingService
}

type serviceManager struct {
	quiz    QuizService
	attempt AttemptService
	grading GradingService
}

func NewServiceManager(deps Deps) ServiceManager {
	return &serviceManager{
		quiz:    NewQuizService(deps, builder.New()),
		attempt: NewAttemptService(deps),
		grading: NewGradingService(deps, grading.NewEngine(deps.Logger)),
	}
}

func (m *serviceManager) Quiz() QuizService       { return m.quiz }
func (m *serviceManager) Attempt() AttemptService { return m.attempt }
func (m *serviceManager) Grading() GradingService { return m.grading }
