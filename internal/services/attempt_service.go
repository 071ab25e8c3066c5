package services

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/player"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

type attemptService struct {
	store     *documentStore
	attempts  repositories.AttemptRepository
	progress  repositories.ProgressRepository
	tx        repositories.Transactor
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    *slog.Logger
	cacheTTL  time.Duration
	now       func() time.Time
}

func NewAttemptService(deps Deps) AttemptService {
	return &attemptService{
		store:     newDocumentStore(deps),
		attempts:  deps.Attempts,
		progress:  deps.Progress,
		tx:        deps.Tx,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		logger:    deps.Logger,
		cacheTTL:  deps.AttemptCacheTTL,
		now:       deps.clock(),
	}
}

// cachedAttempt carries the JSON columns that QuizAttempt hides from encoding
type cachedAttempt struct {
	Attempt  *models.QuizAttempt `json:"attempt"`
	Document json.RawMessage     `json:"document"`
	State    json.RawMessage     `json:"state"`
}

// ===== CORE ATTEMPT OPERATIONS =====

// Start resumes the student's attempt in progress or begins a new one. An
// attempt that ran out of time is submitted first, so starting again is a retake.
func (s *attemptService) Start(ctx context.Context, lessonID, studentID string) (*AttemptResponse, error) {
	s.logger.InfoContext(ctx, "Starting quiz attempt",
		"lesson_id", lessonID,
		"student_id", studentID)

	doc, err := s.store.load(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	active, err := s.attempts.GetActiveAttempt(ctx, nil, studentID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active attempt: %w", err)
	}
	if active != nil {
		p, err := s.restore(active)
		if err != nil {
			return nil, err
		}
		submitted, err := s.expire(ctx, active, p)
		if err != nil {
			return nil, err
		}
		if !submitted {
			s.logger.InfoContext(ctx, "Resuming existing attempt", "attempt_id", active.ID)
			resp := s.buildResponse(active, p)
			resp.Resumed = true
			return resp, nil
		}
	}

	seed, err := newSeed()
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := player.New(doc, uuid.NewString(), seed, now)

	attempt := &models.QuizAttempt{
		ID:        p.State().AttemptID,
		LessonID:  lessonID,
		StudentID: studentID,
		Status:    models.AttemptInProgress,
		StartedAt: now,
	}
	if attempt.Document, err = models.MarshalQuizDocument(doc); err != nil {
		return nil, fmt.Errorf("failed to encode quiz document: %w", err)
	}
	if err := setState(attempt, p); err != nil {
		return nil, err
	}

	if err := s.attempts.Create(ctx, nil, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}
	s.cacheAttempt(ctx, attempt)

	s.publish(ctx, events.NewAttemptStartedEvent(events.AttemptStartedEvent{
		AttemptID:        attempt.ID,
		LessonID:         lessonID,
		StudentID:        studentID,
		StartedAt:        now,
		TimeLimitSeconds: doc.Settings.TimeLimitSeconds,
	}))

	s.logger.InfoContext(ctx, "Quiz attempt started",
		"attempt_id", attempt.ID,
		"lesson_id", lessonID,
		"student_id", studentID,
		"questions", len(doc.Questions))

	return s.buildResponse(attempt, p), nil
}

func (s *attemptService) Get(ctx context.Context, attemptID, studentID string) (*AttemptResponse, error) {
	attempt, p, _, err := s.open(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}
	return s.buildResponse(attempt, p), nil
}

// Answer records the answer to one question. An empty value clears it.
func (s *attemptService) Answer(ctx context.Context, attemptID, studentID, questionID string, value json.RawMessage) (*AttemptResponse, error) {
	attempt, p, _, err := s.open(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}

	if err := p.SetAnswer(questionID, value); err != nil {
		return nil, playerError(err)
	}
	if err := s.persist(ctx, attempt, p); err != nil {
		return nil, err
	}
	return s.buildResponse(attempt, p), nil
}

// Next advances to the following question and submits after the last one.
func (s *attemptService) Next(ctx context.Context, attemptID, studentID string) (*AttemptResponse, error) {
	attempt, p, expired, err := s.open(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}
	if expired {
		return s.buildResponse(attempt, p), nil
	}

	if _, err := p.Next(s.now()); err != nil {
		return nil, playerError(err)
	}
	if err := s.persist(ctx, attempt, p); err != nil {
		return nil, err
	}
	return s.buildResponse(attempt, p), nil
}

// Submit ends the attempt regardless of the current question.
func (s *attemptService) Submit(ctx context.Context, attemptID, studentID string) (*AttemptResponse, error) {
	attempt, p, expired, err := s.open(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}
	if expired {
		return s.buildResponse(attempt, p), nil
	}

	if _, err := p.Submit(s.now()); err != nil {
		return nil, playerError(err)
	}
	if err := s.persist(ctx, attempt, p); err != nil {
		return nil, err
	}
	return s.buildResponse(attempt, p), nil
}

// ===== HELPERS =====

// open loads an attempt owned by studentID. expired reports that the attempt
// ran out of time and was submitted by this call.
func (s *attemptService) open(ctx context.Context, attemptID, studentID string) (*models.QuizAttempt, *player.Player, bool, error) {
	attempt, err := s.loadAttempt(ctx, attemptID)
	if err != nil {
		return nil, nil, false, err
	}
	if attempt.StudentID != studentID {
		return nil, nil, false, NewPermissionError(studentID, attemptID, "attempt", "access", "not owned by student")
	}

	p, err := s.restore(attempt)
	if err != nil {
		return nil, nil, false, err
	}
	expired, err := s.expire(ctx, attempt, p)
	if err != nil {
		return nil, nil, false, err
	}
	return attempt, p, expired, nil
}

// expire submits an in-progress attempt whose time limit has passed
func (s *attemptService) expire(ctx context.Context, attempt *models.QuizAttempt, p *player.Player) (bool, error) {
	now := s.now()
	if p.Submitted() || !p.Expired(now) {
		return false, nil
	}

	s.logger.InfoContext(ctx, "Auto-submitting expired attempt", "attempt_id", attempt.ID)
	if _, err := p.Submit(now); err != nil {
		return false, playerError(err)
	}
	attempt.AutoSubmitted = true
	if err := s.persist(ctx, attempt, p); err != nil {
		return false, err
	}
	return true, nil
}

func (s *attemptService) loadAttempt(ctx context.Context, attemptID string) (*models.QuizAttempt, error) {
	var cached cachedAttempt
	err := s.cache.Get(ctx, cache.AttemptKey(attemptID), &cached)
	switch {
	case err == nil && cached.Attempt != nil:
		attempt := cached.Attempt
		attempt.Document = datatypes.JSON(cached.Document)
		attempt.State = datatypes.JSON(cached.State)
		return attempt, nil
	case err != nil && !errors.Is(err, cache.ErrCacheMiss):
		s.logger.WarnContext(ctx, "Attempt cache unavailable", "attempt_id", attemptID, "error", err)
	}

	attempt, err := s.attempts.GetByID(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	s.cacheAttempt(ctx, attempt)
	return attempt, nil
}

func (s *attemptService) restore(attempt *models.QuizAttempt) (*player.Player, error) {
	doc, err := models.ParseQuizDocument(attempt.Document)
	if err != nil {
		return nil, fmt.Errorf("attempt %s: %w", attempt.ID, err)
	}
	var state player.State
	if err := json.Unmarshal(attempt.State, &state); err != nil {
		return nil, fmt.Errorf("failed to decode state of attempt %s: %w", attempt.ID, err)
	}
	p, err := player.Restore(doc, state)
	if err != nil {
		return nil, fmt.Errorf("attempt %s: %w", attempt.ID, err)
	}
	return p, nil
}

// persist writes the player state through to the database and cache. The
// transition to submitted also records lesson progress and publishes events.
func (s *attemptService) persist(ctx context.Context, attempt *models.QuizAttempt, p *player.Player) error {
	if err := setState(attempt, p); err != nil {
		return err
	}

	justSubmitted := p.Submitted() && attempt.Status != models.AttemptSubmitted
	if !justSubmitted {
		if err := s.attempts.Update(ctx, nil, attempt); err != nil {
			return fmt.Errorf("failed to update attempt: %w", err)
		}
		s.cacheAttempt(ctx, attempt)
		return nil
	}

	state := p.State()
	attempt.Status = models.AttemptSubmitted
	attempt.SubmittedAt = state.SubmittedAt
	attempt.ApplyResult(state.Result)

	err := s.tx.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.attempts.Update(ctx, tx, attempt); err != nil {
			return fmt.Errorf("failed to update attempt: %w", err)
		}
		return s.recordProgress(ctx, tx, attempt, state.Result)
	})
	if err != nil {
		return err
	}
	s.cacheAttempt(ctx, attempt)
	s.publishSubmitted(ctx, attempt, state.Result)

	s.logger.InfoContext(ctx, "Quiz attempt submitted",
		"attempt_id", attempt.ID,
		"earned", state.Result.Earned,
		"total", state.Result.Total,
		"passed", state.Result.Passed,
		"auto_submitted", attempt.AutoSubmitted)
	return nil
}

// recordProgress marks the lesson complete. Students previewing a lesson
// outside an enrollment have no progress to record.
func (s *attemptService) recordProgress(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt, result *models.GradeResult) error {
	_, err := s.progress.MarkLessonComplete(ctx, tx, attempt.StudentID, attempt.LessonID, models.QuizScore{
		Earned: result.Earned,
		Total:  result.Total,
		Passed: result.Passed,
	})
	if errors.Is(err, repositories.ErrNotEnrolled) {
		s.logger.WarnContext(ctx, "Skipping lesson progress for unenrolled student",
			"attempt_id", attempt.ID,
			"student_id", attempt.StudentID,
			"lesson_id", attempt.LessonID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to record lesson progress: %w", err)
	}
	return nil
}

func (s *attemptService) publishSubmitted(ctx context.Context, attempt *models.QuizAttempt, result *models.GradeResult) {
	submittedAt := s.now()
	if attempt.SubmittedAt != nil {
		submittedAt = *attempt.SubmittedAt
	}

	s.publish(ctx, events.NewAttemptSubmittedEvent(events.AttemptSubmittedEvent{
		AttemptID:     attempt.ID,
		LessonID:      attempt.LessonID,
		StudentID:     attempt.StudentID,
		SubmittedAt:   submittedAt,
		Earned:        result.Earned,
		Total:         result.Total,
		Percentage:    result.Percentage,
		Passed:        result.Passed,
		PendingReview: len(result.PendingReview),
		AutoSubmitted: attempt.AutoSubmitted,
	}))

	if len(result.PendingReview) > 0 {
		s.publish(ctx, events.NewManualReviewRequiredEvent(events.ManualReviewRequiredEvent{
			AttemptID:   attempt.ID,
			LessonID:    attempt.LessonID,
			StudentID:   attempt.StudentID,
			QuestionIDs: result.PendingReview,
			RequiredAt:  submittedAt,
		}))
	}
}

func (s *attemptService) cacheAttempt(ctx context.Context, attempt *models.QuizAttempt) {
	entry := cachedAttempt{
		Attempt:  attempt,
		Document: json.RawMessage(attempt.Document),
		State:    json.RawMessage(attempt.State),
	}
	if err := s.cache.Set(ctx, cache.AttemptKey(attempt.ID), entry, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "Failed to cache attempt", "attempt_id", attempt.ID, "error", err)
	}
}

func (s *attemptService) publish(ctx context.Context, event *events.QuizEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish quiz event", "event_type", event.Type, "error", err)
	}
}

func (s *attemptService) buildResponse(attempt *models.QuizAttempt, p *player.Player) *AttemptResponse {
	state := p.State()
	resp := &AttemptResponse{
		ID:            attempt.ID,
		LessonID:      attempt.LessonID,
		Status:        attempt.Status,
		Index:         state.Index,
		Total:         len(state.Order),
		Current:       p.Current(),
		Answers:       state.Submission,
		StartedAt:     state.StartedAt,
		Deadline:      p.Deadline(),
		SubmittedAt:   state.SubmittedAt,
		AutoSubmitted: attempt.AutoSubmitted,
	}
	if p.Submitted() && p.Document().Settings.ShowResultsImmediately {
		resp.Result = p.Result()
	}
	return resp
}

func setState(attempt *models.QuizAttempt, p *player.Player) error {
	data, err := json.Marshal(p.State())
	if err != nil {
		return fmt.Errorf("failed to encode attempt state: %w", err)
	}
	attempt.State = data
	return nil
}

func playerError(err error) error {
	switch {
	case errors.Is(err, player.ErrAttemptSubmitted):
		return ErrAttemptAlreadySubmitted
	case errors.Is(err, player.ErrUnknownQuestion):
		return fmt.Errorf("%w: %w", ErrQuestionNotFound, err)
	default:
		return err
	}
}

// newSeed draws the attempt's shuffle seed from the system CSPRNG
func newSeed() (int64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("failed to generate attempt seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
