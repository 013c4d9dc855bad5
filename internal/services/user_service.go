package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/mamelilea/agrowtify-web/internal/database"
	"github.com/mamelilea/agrowtify-web/internal/models"
	"github.com/mamelilea/agrowtify-web/pkg/utils"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = utils.NormalizeEmail(in.Email)
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("email %s: %w", in.Email, ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate checks credentials. Legacy hashes are upgraded to Argon2id on
// a successful login.
func (s *UserService) Authenticate(ctx context.Context, in LoginInput) (*models.User, error) {
	in.Email = utils.NormalizeEmail(in.Email)
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", in.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	ok, err := utils.VerifyPassword(in.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	if utils.NeedsRehash(user.PasswordHash) {
		if hash, err := utils.HashPassword(in.Password); err == nil {
			if err := s.db.WithContext(ctx).Model(&user).Update("password_hash", hash).Error; err != nil {
				log.Printf("⚠️  WARNING: failed to upgrade password hash for %s: %v", user.ID, err)
			}
		}
	}
	return &user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	if !models.IsID(id) {
		return nil, ErrNotFound
	}
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// EnsureAdmin creates an ADMIN account, or promotes the existing account with
// that email and resets its password.
func (s *UserService) EnsureAdmin(ctx context.Context, in RegisterInput) (*models.User, bool, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = utils.NormalizeEmail(in.Email)
	if err := utils.Validate(in); err != nil {
		return nil, false, err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	var user models.User
	created := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", in.Email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{Name: in.Name, Email: in.Email, PasswordHash: hash, Role: models.RoleAdmin}
			created = true
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}
		updates := map[string]interface{}{"role": models.RoleAdmin, "password_hash": hash}
		if in.Name != "" {
			updates["name"] = in.Name
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		user.Role = models.RoleAdmin
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("ensure admin: %w", err)
	}
	return &user, created, nil
}
