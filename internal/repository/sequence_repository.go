package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"invoicer/internal/model"
)

// SequenceRepository hands out values of named counters.
type SequenceRepository interface {
	// Next atomically increments the named counter and returns the new value.
	// The first value of a counter is 1.
	Next(ctx context.Context, name string) (int64, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository creates a new sequence repository.
func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next locks the counter row for the length of a transaction, so concurrent
// callers on any instance never observe the same value.
func (r *sequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.Sequence{Name: name}).Error; err != nil {
			return err
		}

		var seq model.Sequence
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", name).First(&seq).Error; err != nil {
			return err
		}

		next = seq.Value + 1
		return tx.Model(&model.Sequence{}).Where("name = ?", name).
			Update("value", next).Error
	})
	if err != nil {
		return 0, translate(err)
	}
	return next, nil
}
