package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents the users table. AssignedProjects is loaded from user_projects.
type User struct {
	ID               string     `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Name             string     `gorm:"column:name;not null" json:"name" example:"Ayesha Khan"`
	Email            string     `gorm:"column:email;not null;uniqueIndex" json:"email" example:"ayesha@example.com"`
	PasswordHash     string     `gorm:"column:password_hash;not null" json:"-"`
	Role             Role       `gorm:"column:role;not null;default:viewer;index" json:"role" example:"manager"`
	Phone            string     `gorm:"column:phone" json:"phone,omitempty"`
	Company          string     `gorm:"column:company" json:"company,omitempty"`
	IsActive         bool       `gorm:"column:is_active;not null" json:"isActive"`
	LastLogin        *time.Time `gorm:"column:last_login" json:"lastLogin,omitempty"`
	AssignedProjects []string   `gorm:"-" json:"assignedProjects"`
	CreatedAt        time.Time  `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;not null" json:"updatedAt"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleViewer
	}
	return nil
}

// UserProject is the user_projects assignment table.
type UserProject struct {
	UserID    string    `gorm:"primaryKey;column:user_id;type:varchar(36)"`
	ProjectID string    `gorm:"primaryKey;column:project_id;type:varchar(36);index"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (UserProject) TableName() string {
	return "user_projects"
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email" example:"ayesha@example.com"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

type RegisterInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     Role   `json:"role" binding:"omitempty,oneof=admin manager supervisor viewer"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

// UserUpdateInput never carries a password; passwords change through change-password.
type UserUpdateInput struct {
	Name    *string `json:"name" binding:"omitempty,min=1"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Role    *Role   `json:"role" binding:"omitempty,oneof=admin manager supervisor viewer"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
}

type AssignProjectsInput struct {
	ProjectIDs []string `json:"projectIds" binding:"required"`
}

type LoginResponse struct {
	Success bool   `json:"success" example:"true"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

type UserStats struct {
	Total        int          `json:"total"`
	Active       int          `json:"active"`
	Inactive     int          `json:"inactive"`
	ByRole       map[Role]int `json:"byRole"`
	RecentLogins []User       `json:"recentLogins"`
}
