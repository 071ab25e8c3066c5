package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

// ===== REPOSITORY MOCKS =====

type mockLessonRepo struct {
	mock.Mock
}

func (m *mockLessonRepo) GetLesson(ctx context.Context, tx *gorm.DB, lessonID string) (*models.Lesson, error) {
	args := m.Called(ctx, tx, lessonID)
	lesson, _ := args.Get(0).(*models.Lesson)
	return lesson, args.Error(1)
}

func (m *mockLessonRepo) ReplaceContent(ctx context.Context, tx *gorm.DB, lessonID, content string) error {
	return m.Called(ctx, tx, lessonID, content).Error(0)
}

type mockAttemptRepo struct {
	mock.Mock
}

func (m *mockAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	return m.Called(ctx, tx, attempt).Error(0)
}

func (m *mockAttemptRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.QuizAttempt, error) {
	args := m.Called(ctx, tx, id)
	attempt, _ := args.Get(0).(*models.QuizAttempt)
	return attempt, args.Error(1)
}

func (m *mockAttemptRepo) Update(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	return m.Called(ctx, tx, attempt).Error(0)
}

func (m *mockAttemptRepo) GetActiveAttempt(ctx context.Context, tx *gorm.DB, studentID, lessonID string) (*models.QuizAttempt, error) {
	args := m.Called(ctx, tx, studentID, lessonID)
	attempt, _ := args.Get(0).(*models.QuizAttempt)
	return attempt, args.Error(1)
}

func (m *mockAttemptRepo) ListByLesson(ctx context.Context, tx *gorm.DB, lessonID string, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	args := m.Called(ctx, tx, lessonID, filters)
	attempts, _ := args.Get(0).([]*models.QuizAttempt)
	return attempts, args.Get(1).(int64), args.Error(2)
}

type mockProgressRepo struct {
	mock.Mock
}

func (m *mockProgressRepo) MarkLessonComplete(ctx context.Context, tx *gorm.DB, studentID, lessonID string, score models.QuizScore) (*models.LessonProgress, error) {
	args := m.Called(ctx, tx, studentID, lessonID, score)
	progress, _ := args.Get(0).(*models.LessonProgress)
	return progress, args.Error(1)
}

// inlineTx runs the callback without a database
type inlineTx struct{}

func (inlineTx) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// memoryCache mimics the redis cache: values are stored as JSON and expire
// against the fixture clock
type memoryCache struct {
	mu      sync.Mutex
	items   map[string][]byte
	expires map[string]time.Time
	now     func() time.Time
}

func newMemoryCache(now func() time.Time) *memoryCache {
	return &memoryCache{items: map[string][]byte{}, expires: map[string]time.Time{}, now: now}
}

func (c *memoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = data
	if ttl > 0 {
		c.expires[key] = c.now().Add(ttl)
	} else {
		delete(c.expires, key)
	}
	return nil
}

// live reports whether key holds an unexpired value. Callers hold mu.
func (c *memoryCache) live(key string) bool {
	if _, ok := c.items[key]; !ok {
		return false
	}
	if exp, ok := c.expires[key]; ok && !c.now().Before(exp) {
		delete(c.items, key)
		delete(c.expires, key)
		return false
	}
	return true
}

func (c *memoryCache) Get(ctx context.Context, key string, dest any) error {
	c.mu.Lock()
	ok := c.live(key)
	data := c.items[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	delete(c.expires, key)
	return nil
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			delete(c.expires, key)
		}
	}
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live(key)
}

// ===== FIXTURES =====

const (
	testLessonID  = "lesson-1"
	testStudentID = "student-1"
)

type fixture struct {
	lessons   *mockLessonRepo
	attempts  *mockAttemptRepo
	progress  *mockProgressRepo
	cache     *memoryCache
	publisher *events.MockEventPublisher
	now       time.Time
	deps      Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		lessons:   &mockLessonRepo{},
		attempts:  &mockAttemptRepo{},
		progress:  &mockProgressRepo{},
		publisher: events.NewMockEventPublisher(logger),
		now:       time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.cache = newMemoryCache(func() time.Time { return f.now })
	f.deps = Deps{
		Lessons:          f.lessons,
		Attempts:         f.attempts,
		Progress:         f.progress,
		Tx:               inlineTx{},
		Cache:            f.cache,
		Publisher:        f.publisher,
		Validator:        validator.New(),
		Logger:           logger,
		AttemptCacheTTL:  time.Hour,
		DocumentCacheTTL: 10 * time.Minute,
		Now:              func() time.Time { return f.now },
	}

	t.Cleanup(func() {
		f.lessons.AssertExpectations(t)
		f.attempts.AssertExpectations(t)
		f.progress.AssertExpectations(t)
	})
	return f
}

func (f *fixture) expectLesson(t *testing.T, doc *models.QuizDocument) {
	t.Helper()
	f.lessons.On("GetLesson", mock.Anything, mock.Anything, testLessonID).
		Return(quizLesson(t, doc), nil).Once()
}

func quizLesson(t *testing.T, doc *models.QuizDocument) *models.Lesson {
	t.Helper()
	data, err := models.MarshalQuizDocument(doc)
	require.NoError(t, err)
	content := string(data)
	return &models.Lesson{ID: testLessonID, Title: "Capitals", Type: models.LessonQuiz, Content: &content}
}

// sampleQuiz has an mcq (q1, answer "a") and a short answer (q2, "Paris"),
// ten points each.
func sampleQuiz() *models.QuizDocument {
	doc := models.NewQuizDocument()

	mcq := models.NewQuestion("q1", models.QuestionMCQ)
	mcq.Prompt = "Capital of France?"
	mcq.Payload.(*models.ChoicePayload).Options = []models.ChoiceOption{
		{ID: "a", Text: "Paris", IsCorrect: true},
		{ID: "b", Text: "Lyon"},
	}

	short := models.NewQuestion("q2", models.QuestionShortAnswer)
	short.Prompt = "Capital of France, typed"
	short.Payload.(*models.ShortAnswerPayload).CorrectAnswers = []string{"Paris"}

	doc.Questions = append(doc.Questions, mcq, short)
	return doc
}
