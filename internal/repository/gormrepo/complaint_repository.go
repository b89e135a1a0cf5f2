package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"task_tracker/internal/domain"
	"task_tracker/internal/repository"
)

type ComplaintRepository struct {
	db    *gorm.DB
	clock repository.Clock
}

func NewComplaintRepository(db *gorm.DB, clock repository.Clock) *ComplaintRepository {
	return &ComplaintRepository{db: db, clock: clock}
}

// CreateComplaint always stores a new complaint as open.
func (r *ComplaintRepository) CreateComplaint(ctx context.Context, nc domain.NewComplaint, employeeID string) (*domain.Complaint, error) {
	m := &complaintModel{
		ID:          repository.NewID(),
		Title:       nc.Title,
		Description: nc.Description,
		Status:      string(domain.ComplaintStatusOpen),
		EmployeeID:  employeeID,
		CreatedAt:   r.clock.Now(),
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *ComplaintRepository) GetComplaints(ctx context.Context) ([]domain.Complaint, error) {
	return r.list(r.db.WithContext(ctx))
}

func (r *ComplaintRepository) GetComplaintsByEmployee(ctx context.Context, employeeID string) ([]domain.Complaint, error) {
	return r.list(r.db.WithContext(ctx).Where("employee_id = ?", employeeID))
}

func (r *ComplaintRepository) list(query *gorm.DB) ([]domain.Complaint, error) {
	var models []complaintModel
	if err := query.Order("created_at DESC, id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	complaints := make([]domain.Complaint, len(models))
	for i := range models {
		complaints[i] = *models[i].toDomain()
	}
	return complaints, nil
}

func (r *ComplaintRepository) UpdateComplaint(ctx context.Context, id string, upd domain.ComplaintUpdate) (*domain.Complaint, error) {
	if upd.Status != nil {
		res := r.db.WithContext(ctx).Model(&complaintModel{}).Where("id = ?", id).Update("status", string(*upd.Status))
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, nil
		}
	}
	var m complaintModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return m.toDomain(), nil
}
