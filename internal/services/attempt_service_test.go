package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	apperrors "github.com/SAP-F-2025/quiz-service/internal/errors"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

func startAttempt(t *testing.T, f *fixture, svc AttemptService) *AttemptResponse {
	t.Helper()
	f.attempts.On("GetActiveAttempt", mock.Anything, mock.Anything, testStudentID, testLessonID).
		Return(nil, nil).Once()
	f.attempts.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*models.QuizAttempt")).
		Return(nil).Once()

	resp, err := svc.Start(context.Background(), testLessonID, testStudentID)
	require.NoError(t, err)
	return resp
}

func expectScore(f *fixture, score models.QuizScore) {
	f.progress.On("MarkLessonComplete", mock.Anything, mock.Anything, testStudentID, testLessonID, score).
		Return(&models.LessonProgress{IsCompleted: true}, nil).Once()
}

func TestAttemptService_Start(t *testing.T) {
	f := newFixture(t)
	f.expectLesson(t, sampleQuiz())
	svc := NewAttemptService(f.deps)

	resp := startAttempt(t, f, svc)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, testLessonID, resp.LessonID)
	assert.Equal(t, models.AttemptInProgress, resp.Status)
	assert.Equal(t, 0, resp.Index)
	assert.Equal(t, 2, resp.Total)
	require.NotNil(t, resp.Current)
	assert.Equal(t, "q1", resp.Current.QuestionID)
	assert.Nil(t, resp.Deadline)
	assert.Nil(t, resp.Result)
	assert.False(t, resp.Resumed)

	assert.True(t, f.cache.has(cache.AttemptKey(resp.ID)))
	assert.Len(t, f.publisher.EventsOfType(events.EventAttemptStarted), 1)
}

func TestAttemptService_StartResumesActiveAttempt(t *testing.T) {
	f := newFixture(t)
	f.expectLesson(t, sampleQuiz())
	svc := NewAttemptService(f.deps)

	var created *models.QuizAttempt
	f.attempts.On("GetActiveAttempt", mock.Anything, mock.Anything, testStudentID, testLessonID).
		Return(nil, nil).Once()
	f.attempts.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*models.QuizAttempt")).
		Run(func(args mock.Arguments) { created = args.Get(2).(*models.QuizAttempt) }).
		Return(nil).Once()

	first, err := svc.Start(context.Background(), testLessonID, testStudentID)
	require.NoError(t, err)
	require.NotNil(t, created)

	f.attempts.On("GetActiveAttempt", mock.Anything, mock.Anything, testStudentID, testLessonID).
		Return(created, nil).Once()

	second, err := svc.Start(context.Background(), testLessonID, testStudentID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Resumed)
	assert.Len(t, f.publisher.EventsOfType(events.EventAttemptStarted), 1)
}

func TestAttemptService_AnswerNextSubmitsOnce(t *testing.T) {
	f := newFixture(t)
	f.expectLesson(t, sampleQuiz())
	svc := NewAttemptService(f.deps)
	ctx := context.Background()

	started := startAttempt(t, f, svc)
	f.attempts.On("Update", mock.Anything, mock.Anything, mock.AnythingOfType("*models.QuizAttempt")).Return(nil)
	expectScore(f, models.QuizScore{Earned: 20, Total: 20, Passed: true})

	resp, err := svc.Answer(ctx, started.ID, testStudentID, "q1", json.RawMessage(`"a"`))
	require.NoError(t, err)
	assert.JSONEq(t, `"a"`, string(resp.Answers["q1"]))

	resp, err = svc.Next(ctx, started.ID, testStudentID)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Index)
	assert.Equal(t, "q2", resp.Current.QuestionID)

	_, err = svc.Answer(ctx, started.ID, testStudentID, "q2", json.RawMessage(`" paris "`))
	require.NoError(t, err)

	resp, err = svc.Next(ctx, started.ID, testStudentID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptSubmitted, resp.Status)
	assert.Nil(t, resp.Current)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 20, resp.Result.Earned)
	assert.True(t, resp.Result.Passed)
	assert.False(t, resp.AutoSubmitted)

	_, err = svc.Next(ctx, started.ID, testStudentID)
	assert.ErrorIs(t, err, ErrAttemptAlreadySubmitted)
	_, err = svc.Submit(ctx, started.ID, testStudentID)
	assert.ErrorIs(t, err, ErrAttemptAlreadySubmitted)
	_, err = svc.Answer(ctx, started.ID, testStudentID, "q1", json.RawMessage(`"b"`))
	assert.ErrorIs(t, err, ErrAttemptAlreadySubmitted)

	f.progress.AssertNumberOfCalls(t, "MarkLessonComplete", 1)
	submitted := f.publisher.EventsOfType(events.EventAttemptSubmitted)
	require.Len(t, submitted, 1)
	data := submitted[0].Data.(events.AttemptSubmittedEvent)
	assert.Equal(t, 20, data.Earned)
	assert.Equal(t, started.ID, data.AttemptID)
	assert.Empty(t, f.publisher.EventsOfType(events.EventManualReviewRequired))
}

func TestAttemptService_AnswerUnknownQuestion(t *testing.T) {
	f := newFixture(t)
	f.expectLesson(t, sampleQuiz())
	svc := NewAttemptService(f.deps)

	started := startAttempt(t, f, svc)

	_, err := svc.Answer(context.Background(), started.ID, testStudentID, "nope", json.RawMessage(`"x"`))
	assert.ErrorIs(t, err, ErrQuestionNotFound)
	assert.True(t, IsNotFound(err))
}

func TestAttemptService_ExpiredAttemptIsAutoSubmitted(t *testing.T) {
	f := newFixture(t)
	doc := sampleQuiz()
	limit := 60
	doc.Settings.TimeLimitSeconds = &limit
	f.expectLesson(t, doc)
	svc := NewAttemptService(f.deps)
	ctx := context.Background()

	started := startAttempt(t, f, svc)
	require.NotNil(t, started.Deadline)
	assert.Equal(t, f.now.Add(time.Minute), *started.Deadline)

	f.attempts.On("Update", mock.Anything, mock.Anything, mock.AnythingOfType("*models.QuizAttempt")).Return(nil)
	expectScore(f, models.QuizScore{Earned: 0, Total: 20, Passed: false})

	// exactly at the deadline the attempt is still open
	f.now = f.now.Add(time.Minute)
	resp, err := svc.Get(ctx, started.ID, testStudentID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptInProgress, resp.Status)

	f.now = f.now.Add(time.Second)
	resp, err = svc.Get(ctx, started.ID, testStudentID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptSubmitted, resp.Status)
	assert.True(t, resp.AutoSubmitted)

	_, err = svc.Answer(ctx, started.ID, testStudentID, "q1", json.RawMessage(`"a"`))
	assert.ErrorIs(t, err, ErrAttemptAlreadySubmitted)

	submitted := f.publisher.EventsOfType(events.EventAttemptSubmitted)
	require.Len(t, submitted, 1)
	assert.True(t, submitted[0].Data.(events.AttemptSubmittedEvent).AutoSubmitted)
}

func TestAttemptService_EssayRequiresManualReview(t *testing.T) {
	f := newFixture(t)
	doc := models.NewQuizDocument()
	doc.Questions = append(doc.Questions, models.NewQuestion("essay-1", models.QuestionEssay))
	doc.Settings.ShowResultsImmediately = false
	f.expectLesson(t, doc)
	svc := NewAttemptService(f.deps)
	ctx := context.Background()

	started := startAttempt(t, f, svc)
	f.attempts.On("Update", mock.Anything, mock.Anything, mock.AnythingOfType("*models.QuizAttempt")).Return(nil)
	expectScore(f, models.QuizScore{Earned: 0, Total: 10, Passed: false})

	_, err := svc.Answer(ctx, started.ID, testStudentID, "essay-1", json.RawMessage(`"Rome was not built in a day."`))
	require.NoError(t, err)

	resp, err := svc.Submit(ctx, started.ID, testStudentID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptSubmitted, resp.Status)
	assert.Nil(t, resp.Result, "results are hidden for this quiz")

	review := f.publisher.EventsOfType(events.EventManualReviewRequired)
	require.Len(t, review, 1)
	assert.Equal(t, []string{"essay-1"}, review[0].Data.(events.ManualReviewRequiredEvent).QuestionIDs)
	assert.Equal(t, 1, f.publisher.EventsOfType(events.EventAttemptSubmitted)[0].Data.(events.AttemptSubmittedEvent).PendingReview)
}

func TestAttemptService_SubmitWithoutEnrollment(t *testing.T) {
	f := newFixture(t)
	f.expectLesson(t, sampleQuiz())
	svc := NewAttemptService(f.deps)

	started := startAttempt(t, f, svc)
	f.attempts.On("Update", mock.Anything, mock.Anything, mock.AnythingOfType("*models.QuizAttempt")).Return(nil).Once()
	f.progress.On("MarkLessonComplete", mock.Anything, mock.Anything, testStudentID, testLessonID, mock.Anything).
		Return(nil, repositories.ErrNotEnrolled).Once()

	resp, err := svc.Submit(context.Background(), started.ID, testStudentID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptSubmitted, resp.Status)
}

func TestAttemptService_ProgressFailureAbortsSubmit(t *testing.T) {
	f := newFixture(t)
	f.expectLesson(t, sampleQuiz())
	svc := NewAttemptService(f.deps)

	started := startAttempt(t, f, svc)
	f.attempts.On("Update", mock.Anything, mock.Anything, mock.AnythingOfType("*models.QuizAttempt")).Return(nil).Once()
	f.progress.On("MarkLessonComplete", mock.Anything, mock.Anything, testStudentID, testLessonID, mock.Anything).
		Return(nil, errors.New("connection reset")).Once()

	_, err := svc.Submit(context.Background(), started.ID, testStudentID)
	require.Error(t, err)
	assert.Empty(t, f.publisher.EventsOfType(events.EventAttemptSubmitted))
}

func TestAttemptService_OtherStudentIsDenied(t *testing.T) {
	f := newFixture(t)
	f.expectLesson(t, sampleQuiz())
	svc := NewAttemptService(f.deps)

	started := startAttempt(t, f, svc)

	_, err := svc.Get(context.Background(), started.ID, "student-2")
	var permErr *PermissionError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, "student-2", permErr.UserID)
	assert.True(t, IsUnauthorized(err))
}

func TestAttemptService_GetFallsBackToDatabase(t *testing.T) {
	f := newFixture(t)
	svc := NewAttemptService(f.deps)

	f.attempts.On("GetByID", mock.Anything, mock.Anything, "missing").
		Return(nil, gorm.ErrRecordNotFound).Once()

	_, err := svc.Get(context.Background(), "missing", testStudentID)
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestAttemptService_StartLessonErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("lesson not found", func(t *testing.T) {
		f := newFixture(t)
		f.lessons.On("GetLesson", mock.Anything, mock.Anything, testLessonID).
			Return(nil, gorm.ErrRecordNotFound).Once()

		_, err := NewAttemptService(f.deps).Start(ctx, testLessonID, testStudentID)
		assert.ErrorIs(t, err, ErrLessonNotFound)
	})

	t.Run("not a quiz lesson", func(t *testing.T) {
		f := newFixture(t)
		f.lessons.On("GetLesson", mock.Anything, mock.Anything, testLessonID).
			Return(&models.Lesson{ID: testLessonID, Type: models.LessonVideo}, nil).Once()

		_, err := NewAttemptService(f.deps).Start(ctx, testLessonID, testStudentID)
		assert.ErrorIs(t, err, ErrNotQuizLesson)
	})

	t.Run("malformed content", func(t *testing.T) {
		f := newFixture(t)
		content := `{"questions": [`
		f.lessons.On("GetLesson", mock.Anything, mock.Anything, testLessonID).
			Return(&models.Lesson{ID: testLessonID, Type: models.LessonQuiz, Content: &content}, nil).Once()

		_, err := NewAttemptService(f.deps).Start(ctx, testLessonID, testStudentID)
		assert.True(t, apperrors.IsQuizFormatError(err))
		assert.True(t, IsValidation(err))
	})
}
