package models

// Student is the loan-applicant profile owned by a user account.
type Student struct {
	BaseModel

	UserID string `gorm:"type:uuid;index" json:"user_id"`
	Name   string `gorm:"not null" json:"name"`
	Email  string `gorm:"index;not null" json:"email"`
	Phone  string `json:"phone"`
	PAN    string `gorm:"column:pan;uniqueIndex" json:"pan"`

	Applications []LoanApplication `gorm:"foreignKey:StudentID" json:"applications,omitempty"`
}
