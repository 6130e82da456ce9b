package storage

import (
	"fmt"
	"time"

	"gpt-relay/infra/database"
)

// Turn is the archived record of one committed chat turn. The archive
// is an audit sink only; live conversation state never reads from it.
type Turn struct {
	ID        uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	TurnID    string     `json:"turn_id" gorm:"uniqueIndex;size:255;not null"`
	UserID    string     `json:"user_id" gorm:"index;size:255;not null"`
	Prompt    string     `json:"prompt" gorm:"type:text;not null"`
	Reply     string     `json:"reply" gorm:"type:text;not null"`
	Provider  string     `json:"provider" gorm:"type:varchar(64);not null"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

func (Turn) TableName() string {
	return "turns"
}

type TurnRepository struct {
	db *database.PostgresDB
}

func NewTurnRepository(db *database.PostgresDB) *TurnRepository {
	return &TurnRepository{db: db}
}

func (r *TurnRepository) CreateTurn(turn *Turn) error {
	if err := r.db.Create(turn).Error; err != nil {
		return fmt.Errorf("failed to create turn: %w", err)
	}
	return nil
}

func (r *TurnRepository) GetTurnsByUserID(userID string, limit, offset int) ([]*Turn, error) {
	var turns []*Turn
	if err := r.db.Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&turns).Error; err != nil {
		return nil, fmt.Errorf("failed to get turns: %w", err)
	}
	return turns, nil
}

func (r *TurnRepository) DeleteByUserID(userID string) error {
	if err := r.db.Where("user_id = ?", userID).Delete(&Turn{}).Error; err != nil {
		return fmt.Errorf("failed to delete turns: %w", err)
	}
	return nil
}
