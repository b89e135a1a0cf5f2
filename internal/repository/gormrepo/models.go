package gormrepo

import (
	"time"

	"task_tracker/internal/domain"
)

type userModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Password  string    `gorm:"not null"`
	Role      string    `gorm:"not null;default:employee;index:idx_users_role_created_at,priority:1"`
	CreatedAt time.Time `gorm:"not null;index:idx_users_role_created_at,priority:2"`
}

func (userModel) TableName() string { return "users" }

func (m *userModel) toDomain() *domain.User {
	return &domain.User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Password:  m.Password,
		Role:      domain.Role(m.Role),
		CreatedAt: m.CreatedAt.UTC(),
	}
}

type taskModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	Title       string    `gorm:"not null"`
	Description string    `gorm:"not null"`
	Link        *string
	Status      string    `gorm:"not null;default:pending"`
	AssignedTo  *string   `gorm:"type:varchar(36);index"`
	CreatedBy   string    `gorm:"type:varchar(36);not null"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

func (taskModel) TableName() string { return "tasks" }

func (m *taskModel) toDomain() *domain.Task {
	return &domain.Task{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Link:        m.Link,
		Status:      domain.TaskStatus(m.Status),
		AssignedTo:  m.AssignedTo,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

type complaintModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	Title       string    `gorm:"not null"`
	Description string    `gorm:"not null"`
	Status      string    `gorm:"not null;default:open"`
	EmployeeID  string    `gorm:"type:varchar(36);not null;index"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

func (complaintModel) TableName() string { return "complaints" }

func (m *complaintModel) toDomain() *domain.Complaint {
	return &domain.Complaint{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Status:      domain.ComplaintStatus(m.Status),
		EmployeeID:  m.EmployeeID,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}
