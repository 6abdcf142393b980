package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"newsletter/models"
)

var ErrDuplicateAdmin = errors.New("admin user already exists")

func (s *Store) FindAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return &admin, nil
}

func (s *Store) FindAdminByID(ctx context.Context, id uint) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := s.db.WithContext(ctx).First(&admin, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find admin %d: %w", id, err)
	}
	return &admin, nil
}

func (s *Store) CreateAdmin(ctx context.Context, admin *models.AdminUser) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.AdminUser{}).Where("username = ?", admin.Username).Count(&count).Error; err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if count > 0 {
		return ErrDuplicateAdmin
	}
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

func (s *Store) TouchAdminLogin(ctx context.Context, id uint) error {
	now := s.now()
	err := s.db.WithContext(ctx).Model(&models.AdminUser{}).Where("id = ?", id).Update("last_login", &now).Error
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}
