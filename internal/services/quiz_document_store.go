package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

// documentStore reads and writes quiz documents kept in lesson content,
// caching the serialized form per lesson for ttl. Lessons are also edited
// outside this service, so cached copies always expire.
type documentStore struct {
	lessons repositories.LessonContentRepository
	cache   cache.CacheService
	ttl     time.Duration
	logger  *slog.Logger
}

func newDocumentStore(deps Deps) *documentStore {
	return &documentStore{
		lessons: deps.Lessons,
		cache:   deps.Cache,
		ttl:     deps.DocumentCacheTTL,
		logger:  deps.Logger,
	}
}

// load returns the lesson's quiz document. A quiz lesson without content
// yields a new empty document.
func (d *documentStore) load(ctx context.Context, lessonID string) (*models.QuizDocument, error) {
	if d.ttl > 0 {
		var content string
		err := d.cache.Get(ctx, cache.LessonQuizKey(lessonID), &content)
		if err == nil {
			if doc, parseErr := models.ParseQuizDocumentString(content); parseErr == nil {
				return doc, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			d.logger.WarnContext(ctx, "Falling back to database for quiz document", "lesson_id", lessonID, "error", err)
		}
	}

	lesson, err := d.lessons.GetLesson(ctx, nil, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if lesson.Type != models.LessonQuiz {
		return nil, ErrNotQuizLesson
	}

	doc := models.NewQuizDocument()
	if lesson.Content != nil && strings.TrimSpace(*lesson.Content) != "" {
		if doc, err = models.ParseQuizDocumentString(*lesson.Content); err != nil {
			return nil, fmt.Errorf("lesson %s: %w", lessonID, err)
		}
	}

	if d.ttl > 0 {
		if err := d.cache.Set(ctx, cache.LessonQuizKey(lessonID), doc.String(), d.ttl); err != nil {
			d.logger.WarnContext(ctx, "Failed to cache quiz document", "lesson_id", lessonID, "error", err)
		}
	}
	return doc, nil
}

// save replaces the lesson content. Concurrent saves are last write wins.
func (d *documentStore) save(ctx context.Context, lessonID string, doc *models.QuizDocument) error {
	data, err := models.MarshalQuizDocument(doc)
	if err != nil {
		return fmt.Errorf("failed to encode quiz document: %w", err)
	}
	if err := d.lessons.ReplaceContent(ctx, nil, lessonID, string(data)); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrLessonNotFound
		}
		return fmt.Errorf("failed to save lesson content: %w", err)
	}

	if err := d.cache.DeletePattern(ctx, cache.LessonPattern(lessonID)); err != nil {
		d.logger.WarnContext(ctx, "Failed to invalidate lesson cache", "lesson_id", lessonID, "error", err)
	}
	return nil
}
