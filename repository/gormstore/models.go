package gormstore

import (
	"time"

	"cloud.google.com/go/civil"
	"gorm.io/gorm"

	"github.com/fastygo/tasktracker/domain"
)

type userModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Username  string    `gorm:"size:50;not null;uniqueIndex"`
	Email     *string   `gorm:"size:255"`
	Role      string    `gorm:"size:20;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (userModel) TableName() string { return "users" }

type taskModel struct {
	ID          string     `gorm:"type:varchar(36);primaryKey"`
	Title       string     `gorm:"size:100;not null;uniqueIndex:idx_tasks_title_assignee"`
	Description *string    `gorm:"size:500"`
	Status      string     `gorm:"size:20;not null;index"`
	Priority    *string    `gorm:"size:20"`
	DueDate     *time.Time `gorm:"type:date"`
	AssigneeID  *string    `gorm:"type:varchar(36);index;uniqueIndex:idx_tasks_title_assignee"`
	Assignee    *userModel `gorm:"foreignKey:AssigneeID;constraint:OnDelete:SET NULL"`
	CreatedAt   time.Time  `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime:false"`
}

func (taskModel) TableName() string { return "tasks" }

// AutoMigrate creates or updates the users and tasks tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&userModel{}, &taskModel{})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func userFromDomain(user *domain.User) userModel {
	return userModel{
		ID:        user.ID,
		Username:  user.Username,
		Email:     optional(user.Email),
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func (m userModel) toDomain() domain.User {
	return domain.User{
		ID:        m.ID,
		Username:  m.Username,
		Email:     value(m.Email),
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func taskFromDomain(task *domain.Task) taskModel {
	m := taskModel{
		ID:          task.ID,
		Title:       task.Title,
		Description: optional(task.Description),
		Status:      task.Status,
		Priority:    optional(task.Priority),
		AssigneeID:  optional(task.AssigneeID),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.DueDate != nil {
		due := task.DueDate.In(time.UTC)
		m.DueDate = &due
	}
	return m
}

func (m taskModel) toDomain() domain.Task {
	task := domain.Task{
		ID:          m.ID,
		Title:       m.Title,
		Description: value(m.Description),
		Status:      m.Status,
		Priority:    value(m.Priority),
		AssigneeID:  value(m.AssigneeID),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.DueDate != nil {
		due := civil.DateOf(*m.DueDate)
		task.DueDate = &due
	}
	if m.Assignee != nil {
		assignee := m.Assignee.toDomain()
		task.Assignee = &assignee
	}
	return task
}
