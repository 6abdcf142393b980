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

// CountSubscriptionsOn counts subscribers created from ip on day's calendar date.
func (s *Store) CountSubscriptionsOn(ctx context.Context, ip string, day time.Time) (int64, error) {
	start := utils.StartOfDay(day)
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Subscriber{}).
		Where("ip_address = ? AND subscribed_at >= ? AND subscribed_at < ?", ip, start, start.AddDate(0, 0, 1)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count subscriptions for %s: %w", ip, err)
	}
	return count, nil
}

func (s *Store) FindSubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find subscriber: %w", err)
	}
	return &sub, nil
}

// CreateSubscriber inserts sub unless the email is taken. created reports
// whether a row was written.
func (s *Store) CreateSubscriber(ctx context.Context, sub *models.Subscriber) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(sub)
	if res.Error != nil {
		return false, fmt.Errorf("create subscriber: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ReactivateSubscriber flips an unsubscribed row back to active. It reports
// false if the row was not unsubscribed any more.
func (s *Store) ReactivateSubscriber(ctx context.Context, id uint, ip, userAgent string, score int) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Subscriber{}).
		Where("id = ? AND status = ?", id, models.StatusUnsubscribed).
		Updates(map[string]interface{}{
			"status":           models.StatusActive,
			"subscribed_at":    s.now(),
			"ip_address":       ip,
			"user_agent":       userAgent,
			"validation_score": score,
		})
	if res.Error != nil {
		return false, fmt.Errorf("reactivate subscriber %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// UnsubscribeByToken deactivates the active subscriber matching both email
// and token.
func (s *Store) UnsubscribeByToken(ctx context.Context, email, token string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Subscriber{}).
		Where("email = ? AND unsubscribe_token = ? AND status = ?", strings.ToLower(email), token, models.StatusActive).
		Update("status", models.StatusUnsubscribed)
	if res.Error != nil {
		return false, fmt.Errorf("unsubscribe by token: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) UnsubscribeByEmail(ctx context.Context, email string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Subscriber{}).
		Where("email = ? AND status = ?", strings.ToLower(email), models.StatusActive).
		Update("status", models.StatusUnsubscribed)
	if res.Error != nil {
		return false, fmt.Errorf("unsubscribe: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ActiveSubscribers returns every active subscriber, newest first.
func (s *Store) ActiveSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	var subs []models.Subscriber
	err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusActive).
		Order("subscribed_at DESC, id DESC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("list active subscribers: %w", err)
	}
	return subs, nil
}

type Dashboard struct {
	TotalActive       int64                  `json:"total_active"`
	Today             int64                  `json:"today"`
	LastSevenDays     int64                  `json:"last_seven_days"`
	TotalRejected     int64                  `json:"total_rejected"`
	RecentSubscribers []models.Subscriber    `json:"recent_subscribers"`
	RecentRejected    []models.RejectedEmail `json:"recent_rejected"`
}

func (s *Store) Dashboard(ctx context.Context) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	today := utils.StartOfDay(s.now())
	d := &Dashboard{}

	active := func() *gorm.DB {
		return db.Model(&models.Subscriber{}).Where("status = ?", models.StatusActive)
	}
	if err := active().Count(&d.TotalActive).Error; err != nil {
		return nil, fmt.Errorf("count active: %w", err)
	}
	if err := active().Where("subscribed_at >= ?", today).Count(&d.Today).Error; err != nil {
		return nil, fmt.Errorf("count today: %w", err)
	}
	if err := active().Where("subscribed_at >= ?", today.AddDate(0, 0, -6)).Count(&d.LastSevenDays).Error; err != nil {
		return nil, fmt.Errorf("count last week: %w", err)
	}
	if err := db.Model(&models.RejectedEmail{}).Count(&d.TotalRejected).Error; err != nil {
		return nil, fmt.Errorf("count rejected: %w", err)
	}
	if err := db.Order("subscribed_at DESC, id DESC").Limit(10).Find(&d.RecentSubscribers).Error; err != nil {
		return nil, fmt.Errorf("recent subscribers: %w", err)
	}
	if err := db.Order("submitted_at DESC, id DESC").Limit(10).Find(&d.RecentRejected).Error; err != nil {
		return nil, fmt.Errorf("recent rejections: %w", err)
	}
	return d, nil
}
