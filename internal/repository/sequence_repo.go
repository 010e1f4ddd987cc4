package repository

import (
	"go-inventory-ledger/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SequenceRepository interface {
	Next(tx *gorm.DB, scope string) (int, error)
}

type sequenceRepo struct{}

func NewSequenceRepo() SequenceRepository {
	return &sequenceRepo{}
}

// Next increments the counter for scope inside tx. The row stays locked until tx
// ends, so concurrent allocations for the same day queue behind each other.
func (r *sequenceRepo) Next(tx *gorm.DB, scope string) (int, error) {
	seed := model.DocumentSequence{Scope: scope}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return 0, err
	}

	var seq model.DocumentSequence
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&seq, "scope = ?", scope).Error; err != nil {
		return 0, err
	}

	next := seq.Value + 1
	if err := tx.Model(&model.DocumentSequence{}).Where("scope = ?", scope).Update("value", next).Error; err != nil {
		return 0, err
	}
	return next, nil
}
