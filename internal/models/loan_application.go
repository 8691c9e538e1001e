package models

// Loan application statuses.
const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

// LoanApplication ties a student to a university with a requested amount.
// CibilScore is a snapshot taken at submission time from the score mock.
type LoanApplication struct {
	BaseModel

	StudentID    string `gorm:"type:uuid;index;not null" json:"student_id"`
	UniversityID string `gorm:"type:uuid;index;not null" json:"university_id"`

	Amount     int64  `gorm:"not null" json:"amount"`
	Status     string `gorm:"not null;default:pending" json:"status"`
	CibilScore int    `json:"cibil_score"`

	Student    *Student    `json:"student,omitempty"`
	University *University `json:"university,omitempty"`
}
