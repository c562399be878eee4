package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// AutoMigrate creates the users, allow-list and login code tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &AllowedEmail{}, &loginCodeModel{})
}

func (r *userRepository) GetAllowed(ctx context.Context, email string) (*AllowedEmail, error) {
	var row AllowedEmail
	err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotInvited
		}
		return nil, err
	}
	return &row, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) CompleteLogin(ctx context.Context, email string, at time.Time) (*User, error) {
	email = normalizeEmail(email)
	var u User

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&u).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			u = User{ID: uuid.NewString(), Email: email, CreatedAt: at}
			if err := tx.Create(&u).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		}

		if err := tx.Model(&User{}).Where("id = ?", u.ID).Update("last_login_at", at).Error; err != nil {
			return err
		}
		u.LastLoginAt = &at

		return tx.Model(&AllowedEmail{}).Where("email = ?", email).Update("user_id", u.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) UpsertAllowed(ctx context.Context, email, note string) error {
	row := AllowedEmail{Email: normalizeEmail(email), Note: strings.TrimSpace(note)}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"note"}),
	}).Create(&row).Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
