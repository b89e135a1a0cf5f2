package mongorepo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"task_tracker/internal/domain"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Password:  d.Password,
		Role:      domain.Role(d.Role),
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// taskDoc keeps user references as hex strings; nil pointers are stored as null.
type taskDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Link        *string            `bson:"link"`
	Status      string             `bson:"status"`
	AssignedTo  *string            `bson:"assignedTo"`
	CreatedBy   string             `bson:"createdBy"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (d *taskDoc) toDomain() *domain.Task {
	return &domain.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Link:        d.Link,
		Status:      domain.TaskStatus(d.Status),
		AssignedTo:  d.AssignedTo,
		CreatedBy:   d.CreatedBy,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

type complaintDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Status      string             `bson:"status"`
	EmployeeID  string             `bson:"employeeId"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (d *complaintDoc) toDomain() *domain.Complaint {
	return &domain.Complaint{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Status:      domain.ComplaintStatus(d.Status),
		EmployeeID:  d.EmployeeID,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}
