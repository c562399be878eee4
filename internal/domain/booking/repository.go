package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes raised by the bookings constraints.
const (
	pgExclusionViolation = "23P01"
	pgCheckViolation     = "23514"
)

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

type bookingModel struct {
	ID          string    `gorm:"column:id;primaryKey;size:36"`
	Day         time.Time `gorm:"column:day;type:date;not null;index"`
	UserID      string    `gorm:"column:user_id;size:36;not null;index"`
	StartMinute int       `gorm:"column:start_minute;not null"`
	EndMinute   int       `gorm:"column:end_minute;not null"`
	Note        *string   `gorm:"column:note"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *Booking {
	var note string
	if m.Note != nil {
		note = *m.Note
	}

	return &Booking{
		ID:          m.ID,
		Day:         FormatDay(m.Day),
		UserID:      m.UserID,
		StartMinute: m.StartMinute,
		EndMinute:   m.EndMinute,
		Note:        note,
	}
}

func toBookingModel(b *Booking) (bookingModel, error) {
	day, err := ParseDay(b.Day)
	if err != nil {
		return bookingModel{}, fmt.Errorf("%w: day %q", ErrValidation, b.Day)
	}

	var note *string
	if b.Note != "" {
		v := b.Note
		note = &v
	}

	return bookingModel{
		ID:          b.ID,
		Day:         day,
		UserID:      b.UserID,
		StartMinute: b.StartMinute,
		EndMinute:   b.EndMinute,
		Note:        note,
	}, nil
}

// AutoMigrate creates the bookings table. On PostgreSQL it also installs the
// exclusion constraint that makes overlapping ranges on one day impossible.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&bookingModel{}); err != nil {
		return err
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	return db.Exec(`
CREATE EXTENSION IF NOT EXISTS btree_gist;
DO $$
BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'bookings_no_overlap') THEN
    ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap
      EXCLUDE USING gist (day WITH =, int4range(start_minute, end_minute, '[)') WITH &&);
  END IF;
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'bookings_minute_range') THEN
    ALTER TABLE bookings ADD CONSTRAINT bookings_minute_range
      CHECK (start_minute >= 0 AND end_minute <= 1440 AND start_minute < end_minute);
  END IF;
END $$;
`).Error
}

func (r *bookingRepository) ListRange(ctx context.Context, from, to time.Time) ([]Booking, error) {
	var rows []bookingModel
	err := r.db.WithContext(ctx).
		Where("day >= ? AND day <= ?", from, to).
		Order("day ASC").
		Order("start_minute ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

func (r *bookingRepository) Create(ctx context.Context, b *Booking) error {
	m, err := toBookingModel(b)
	if err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	if r.db.Dialector.Name() == "postgres" {
		if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
			return translateError(err)
		}
		*b = *toDomainBooking(m)
		return nil
	}

	// SQLite has no exclusion constraints; emulate bookings_no_overlap in a transaction.
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		err := tx.Model(&bookingModel{}).
			Where("day = ?", m.Day).
			Where("start_minute < ? AND end_minute > ?", m.EndMinute, m.StartMinute).
			Count(&cnt).Error
		if err != nil {
			return err
		}
		if cnt > 0 {
			return ErrOverlap
		}
		return tx.Create(&m).Error
	})
	if err != nil {
		return err
	}

	*b = *toDomainBooking(m)
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	var m bookingModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toDomainBooking(m), nil
}

func (r *bookingRepository) Delete(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&bookingModel{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgExclusionViolation:
		return fmt.Errorf("%w (%s)", ErrOverlap, pgErr.ConstraintName)
	case pgCheckViolation:
		return fmt.Errorf("%w (%s)", ErrInvalidRange, pgErr.ConstraintName)
	}
	return err
}
