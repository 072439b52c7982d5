package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleCandidate UserRole = "candidate"
	RoleAdmin     UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleCandidate, RoleAdmin:
		return true
	}
	return false
}

// User 首次登录时创建，身份由外部认证服务提供
type User struct {
	ID        string    `gorm:"primarykey;size:36" json:"_id"`
	Email     string    `gorm:"size:191;uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"size:100" json:"name"`
	PhotoURL  string    `gorm:"size:255" json:"photoURL,omitempty"`
	Role      UserRole  `gorm:"size:16;not null;default:'user'" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate GORM Hook，创建前生成 ID 并补齐默认角色
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}
