package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type loginCodeModel struct {
	Email      string     `gorm:"column:email;primaryKey"`
	CodeHash   string     `gorm:"column:code_hash;not null"`
	Attempts   int        `gorm:"column:attempts;not null;default:0"`
	LastSentAt time.Time  `gorm:"column:last_sent_at"`
	ExpiresAt  time.Time  `gorm:"column:expires_at;index"`
	UsedAt     *time.Time `gorm:"column:used_at"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
}

func (loginCodeModel) TableName() string { return "login_codes" }

type gormCodeStore struct {
	db *gorm.DB
}

func NewGormCodeStore(db *gorm.DB) CodeStore {
	return &gormCodeStore{db: db}
}

func (s *gormCodeStore) Get(ctx context.Context, email string) (*LoginCode, error) {
	var m loginCodeModel
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	return &LoginCode{
		Email:      m.Email,
		CodeHash:   m.CodeHash,
		Attempts:   m.Attempts,
		LastSentAt: m.LastSentAt,
		ExpiresAt:  m.ExpiresAt,
		UsedAt:     m.UsedAt,
	}, nil
}

func (s *gormCodeStore) Save(ctx context.Context, code *LoginCode) error {
	m := loginCodeModel{
		Email:      code.Email,
		CodeHash:   code.CodeHash,
		Attempts:   0,
		LastSentAt: code.LastSentAt,
		ExpiresAt:  code.ExpiresAt,
		CreatedAt:  code.LastSentAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}},
		DoUpdates: clause.Assignments(map[string]any{
			"code_hash":    m.CodeHash,
			"attempts":     0,
			"last_sent_at": m.LastSentAt,
			"expires_at":   m.ExpiresAt,
			"used_at":      nil,
		}),
	}).Create(&m).Error
}

func (s *gormCodeStore) IncrementAttempts(ctx context.Context, email string) (int, error) {
	var attempts int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&loginCodeModel{}).
			Where("email = ?", email).
			Update("attempts", gorm.Expr("attempts + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCodeNotFound
		}
		return tx.Model(&loginCodeModel{}).Where("email = ?", email).Pluck("attempts", &attempts).Error
	})
	return attempts, err
}

func (s *gormCodeStore) MarkUsed(ctx context.Context, email string, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&loginCodeModel{}).
		Where("email = ?", email).
		Update("used_at", at).Error
}

// PurgeLoginCodes deletes codes that expired before now or were already used.
func PurgeLoginCodes(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at < ? OR used_at IS NOT NULL", now).
		Delete(&loginCodeModel{})
	return res.RowsAffected, res.Error
}
