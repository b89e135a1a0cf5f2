package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"task_tracker/internal/domain"
	"task_tracker/internal/repository"
)

type TaskRepository struct {
	db    *gorm.DB
	clock repository.Clock
}

func NewTaskRepository(db *gorm.DB, clock repository.Clock) *TaskRepository {
	return &TaskRepository{db: db, clock: clock}
}

func (r *TaskRepository) CreateTask(ctx context.Context, nt domain.NewTask, createdBy string) (*domain.Task, error) {
	m := &taskModel{
		ID:          repository.NewID(),
		Title:       nt.Title,
		Description: nt.Description,
		Link:        nt.Link,
		Status:      string(repository.TaskStatusOrDefault(nt.Status)),
		AssignedTo:  nt.AssignedTo,
		CreatedBy:   createdBy,
		CreatedAt:   r.clock.Now(),
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *TaskRepository) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var m taskModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *TaskRepository) GetTasks(ctx context.Context) ([]domain.Task, error) {
	return r.list(r.db.WithContext(ctx))
}

func (r *TaskRepository) GetTasksByAssignee(ctx context.Context, assigneeID string) ([]domain.Task, error) {
	return r.list(r.db.WithContext(ctx).Where("assigned_to = ?", assigneeID))
}

func (r *TaskRepository) list(query *gorm.DB) ([]domain.Task, error) {
	var models []taskModel
	if err := query.Order("created_at DESC, id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, len(models))
	for i := range models {
		tasks[i] = *models[i].toDomain()
	}
	return tasks, nil
}

func (r *TaskRepository) UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) (*domain.Task, error) {
	if upd.Empty() {
		return r.GetTask(ctx, id)
	}
	changes := map[string]any{}
	if upd.Status != nil {
		changes["status"] = string(*upd.Status)
	}
	if upd.Unassigns() {
		changes["assigned_to"] = nil
	} else if upd.AssignedTo != nil {
		changes["assigned_to"] = *upd.AssignedTo
	}
	res := r.db.WithContext(ctx).Model(&taskModel{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetTask(ctx, id)
}

func (r *TaskRepository) DeleteTask(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&taskModel{}).Error
}
