package gormrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"task_tracker/internal/domain"
	"task_tracker/internal/repository"
)

type UserRepository struct {
	db    *gorm.DB
	clock repository.Clock
}

func NewUserRepository(db *gorm.DB, clock repository.Clock) *UserRepository {
	return &UserRepository{db: db, clock: clock}
}

func (r *UserRepository) CreateUser(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	m := &userModel{
		ID:        repository.NewID(),
		Name:      nu.Name,
		Email:     repository.NormalizeEmail(nu.Email),
		Password:  nu.Password,
		Role:      string(nu.Role),
		CreatedAt: r.clock.Now(),
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, repository.ErrDuplicateEmail
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *UserRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).Where("email = ?", repository.NormalizeEmail(email)).First(&m).Error; err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *UserRepository) GetEmployees(ctx context.Context) ([]domain.User, error) {
	var models []userModel
	err := r.db.WithContext(ctx).
		Where("role = ?", string(domain.RoleEmployee)).
		Order("created_at DESC, id DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, len(models))
	for i := range models {
		users[i] = *models[i].toDomain()
	}
	return users, nil
}
