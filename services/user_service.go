package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opunath26/idea-arena-server/models"
	"gorm.io/gorm"
)

type UserService struct {
	db    *gorm.DB
	stats *StatsService
	now   func() time.Time
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db, now: time.Now}
}

func (s *UserService) WithStats(stats *StatsService) *UserService {
	s.stats = stats
	return s
}

func (s *UserService) List(ctx context.Context, searchText string) ([]models.User, error) {
	db := s.db.WithContext(ctx).Model(&models.User{})
	if q := strings.TrimSpace(searchText); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	users := make([]models.User, 0)
	if err := db.Order("created_at desc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// FindByEmail 供权限中间件使用
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// GetRole 没有用户记录时按普通用户处理
func (s *UserService) GetRole(ctx context.Context, email string) (models.UserRole, error) {
	user, err := s.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return models.RoleUser, nil
	}
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

// Create 首次登录时登记用户，邮箱已存在则返回 created=false 且不写入
func (s *UserService) Create(ctx context.Context, user *models.User) (bool, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" {
		return false, fmt.Errorf("%w: email is required", ErrBadRequest)
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", user.Email).Count(&existing).Error; err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	if existing > 0 {
		return false, nil
	}

	user.ID = ""
	user.Role = models.RoleUser
	user.CreatedAt = s.now()
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("create user: %w", err)
	}
	s.stats.Invalidate(ctx)
	return true, nil
}

func (s *UserService) UpdateRole(ctx context.Context, id string, role models.UserRole) (WriteResult, error) {
	if !role.Valid() {
		return WriteResult{}, fmt.Errorf("%w: unknown role %q", ErrBadRequest, role)
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return WriteResult{}, fmt.Errorf("update user role: %w", res.Error)
	}
	return WriteResult{MatchedCount: res.RowsAffected, ModifiedCount: res.RowsAffected}, nil
}
