package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

type transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) repositories.Transactor {
	return &transactor{db: db}
}

// WithTransaction commits when fn returns nil and rolls back otherwise
func (t *transactor) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}
