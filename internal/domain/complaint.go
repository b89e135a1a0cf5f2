package domain

import "time"

type ComplaintStatus string

const (
	ComplaintStatusOpen     ComplaintStatus = "open"
	ComplaintStatusInReview ComplaintStatus = "in_review"
	ComplaintStatusResolved ComplaintStatus = "resolved"
)

func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusOpen, ComplaintStatusInReview, ComplaintStatusResolved:
		return true
	}
	return false
}

// Complaint is filed by an employee and resolved by a manager.
type Complaint struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      ComplaintStatus `json:"status"`
	EmployeeID  string          `json:"employeeId"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type NewComplaint struct {
	Title       string
	Description string
}

type ComplaintUpdate struct {
	Status *ComplaintStatus
}
