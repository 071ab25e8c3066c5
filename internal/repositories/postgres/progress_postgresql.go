package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

type ProgressPostgreSQL struct {
	db *gorm.DB
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{db: db}
}

// MarkLessonComplete upserts the progress row of the enrollment that gives
// the student access to the lesson.
func (p *ProgressPostgreSQL) MarkLessonComplete(ctx context.Context, tx *gorm.DB, studentID, lessonID string, score models.QuizScore) (*models.LessonProgress, error) {
	db := p.getDB(tx).WithContext(ctx)

	var enrollmentID string
	err := db.Table("course_enrollments AS ce").
		Select("ce.id").
		Joins("JOIN modules m ON m.course_id = ce.course_id").
		Joins("JOIN lessons l ON l.module_id = m.id").
		Where("l.id = ? AND ce.student_id = ?", lessonID, studentID).
		Limit(1).
		Scan(&enrollmentID).Error
	if err != nil {
		return nil, err
	}
	if enrollmentID == "" {
		return nil, repositories.ErrNotEnrolled
	}

	now := time.Now()
	progress := &models.LessonProgress{
		EnrollmentID: enrollmentID,
		LessonID:     lessonID,
		IsCompleted:  true,
		CompletedAt:  &now,
		Score:        &score.Earned,
		MaxScore:     &score.Total,
		Passed:       &score.Passed,
	}

	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_completed", "completed_at", "score", "max_score", "passed"}),
	}).Create(progress).Error
	if err != nil {
		return nil, err
	}
	return progress, nil
}

func (p *ProgressPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}
