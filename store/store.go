// Package store is the gorm-backed persistence for subscribers, rejected
// signups and admin users. It satisfies the repositories of the recovery and
// subscription packages.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"newsletter/models"
	"newsletter/utils"
)

var ErrNotFound = errors.New("record not found")

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Subscriber{},
		&models.RejectedEmail{},
		&models.AdminUser{},
	)
}

// ---- rejected emails ----

func (s *Store) ListRejected(ctx context.Context) ([]models.RejectedEmail, error) {
	var rows []models.RejectedEmail
	err := s.db.WithContext(ctx).
		Order("submitted_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list rejected emails: %w", err)
	}
	return rows, nil
}

func (s *Store) GetRejected(ctx context.Context, id uint) (*models.RejectedEmail, error) {
	var row models.RejectedEmail
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rejected email %d: %w", id, err)
	}
	return &row, nil
}

func (s *Store) FindRejectedByEmail(ctx context.Context, email string) (*models.RejectedEmail, error) {
	var row models.RejectedEmail
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		Order("submitted_at DESC, id DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find rejected email: %w", err)
	}
	return &row, nil
}

func (s *Store) RecordRejection(ctx context.Context, row *models.RejectedEmail) error {
	if row.SubmittedAt.IsZero() {
		row.SubmittedAt = s.now()
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("record rejection: %w", err)
	}
	return nil
}

// PromoteRejected inserts sub (ignoring a duplicate email) and deletes the
// rejected row in the same transaction, together with every other rejected
// row for the same address or for sub's corrected address. duplicates counts
// those extra rows.
func (s *Store) PromoteRejected(ctx context.Context, rejected *models.RejectedEmail, sub *models.Subscriber) (created bool, duplicates int64, err error) {
	emails := []string{strings.ToLower(rejected.Email)}
	if e := strings.ToLower(sub.Email); e != emails[0] {
		emails = append(emails, e)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).Create(sub)
		if res.Error != nil {
			return fmt.Errorf("insert subscriber: %w", res.Error)
		}
		created = res.RowsAffected > 0

		if err := tx.Delete(&models.RejectedEmail{}, rejected.ID).Error; err != nil {
			return fmt.Errorf("delete rejected email: %w", err)
		}

		res = tx.Where("id <> ? AND LOWER(email) IN ?", rejected.ID, emails).Delete(&models.RejectedEmail{})
		if res.Error != nil {
			return fmt.Errorf("delete duplicate rejected emails: %w", res.Error)
		}
		duplicates = res.RowsAffected
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return created, duplicates, nil
}

// RejectedFilter narrows the admin listing. Reason is a substring match and
// Date a calendar day.
type RejectedFilter struct {
	Reason string
	Date   *time.Time
	Page   int
	Limit  int
}

func (s *Store) ListRejectedPage(ctx context.Context, f RejectedFilter) ([]models.RejectedEmail, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.RejectedEmail{})
	if f.Reason != "" {
		query = query.Where("rejection_reason LIKE ?", "%"+f.Reason+"%")
	}
	if f.Date != nil {
		start := utils.StartOfDay(*f.Date)
		query = query.Where("submitted_at >= ? AND submitted_at < ?", start, start.AddDate(0, 0, 1))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count rejected emails: %w", err)
	}

	var rows []models.RejectedEmail
	err := query.
		Order("submitted_at DESC, id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list rejected emails: %w", err)
	}
	return rows, total, nil
}

func (s *Store) RejectionStats(ctx context.Context) ([]models.ReasonCount, error) {
	var stats []models.ReasonCount
	err := s.db.WithContext(ctx).
		Model(&models.RejectedEmail{}).
		Select("rejection_reason AS reason, COUNT(*) AS count").
		Group("rejection_reason").
		Order("count DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("rejection stats: %w", err)
	}
	return stats, nil
}

// ClearRejected deletes every rejected row and returns how many went.
func (s *Store) ClearRejected(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("1 = 1").Delete(&models.RejectedEmail{})
	if res.Error != nil {
		return 0, fmt.Errorf("clear rejected emails: %w", res.Error)
	}
	return res.RowsAffected, nil
}
