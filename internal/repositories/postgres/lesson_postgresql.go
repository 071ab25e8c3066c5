package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

type LessonPostgreSQL struct {
	db *gorm.DB
}

func NewLessonPostgreSQL(db *gorm.DB) repositories.LessonContentRepository {
	return &LessonPostgreSQL{db: db}
}

func (l *LessonPostgreSQL) GetLesson(ctx context.Context, tx *gorm.DB, lessonID string) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := l.getDB(tx).WithContext(ctx).First(&lesson, "id = ?", lessonID).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (l *LessonPostgreSQL) ReplaceContent(ctx context.Context, tx *gorm.DB, lessonID, content string) error {
	result := l.getDB(tx).WithContext(ctx).
		Model(&models.Lesson{}).
		Where("id = ?", lessonID).
		Update("content", content)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (l *LessonPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return l.db
}
