package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/edulend/edulend/internal/models"
	apperrors "github.com/edulend/edulend/pkg/errors"
)

// CreateApplicationInput describes a loan application submission.
type CreateApplicationInput struct {
	StudentID    string
	UniversityID string
	Amount       int64
}

// ApplicationService manages loan applications.
type ApplicationService struct {
	db *gorm.DB
}

// NewApplicationService constructs an ApplicationService instance.
func NewApplicationService(db *gorm.DB) (*ApplicationService, error) {
	if db == nil {
		return nil, errors.New("application service: db is required")
	}
	return &ApplicationService{db: db}, nil
}

// Create submits a loan application, snapshotting the mock CIBIL score of the
// owning student at submission time.
func (s *ApplicationService) Create(ctx context.Context, input CreateApplicationInput) (*models.LoanApplication, error) {
	if input.Amount <= 0 {
		return nil, apperrors.NewBadRequest("amount must be positive")
	}

	var student models.Student
	if err := s.db.WithContext(ctx).Where("id = ?", input.StudentID).Take(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewBadRequest("student does not exist")
		}
		return nil, fmt.Errorf("application service: load student: %w", err)
	}

	var uniCount int64
	if err := s.db.WithContext(ctx).Model(&models.University{}).Where("id = ?", input.UniversityID).Count(&uniCount).Error; err != nil {
		return nil, fmt.Errorf("application service: load university: %w", err)
	}
	if uniCount == 0 {
		return nil, apperrors.NewBadRequest("university does not exist")
	}

	app := &models.LoanApplication{
		StudentID:    input.StudentID,
		UniversityID: input.UniversityID,
		Amount:       input.Amount,
		Status:       models.ApplicationPending,
		CibilScore:   MockCibilScore(student.PAN),
	}
	if err := s.db.WithContext(ctx).Create(app).Error; err != nil {
		return nil, fmt.Errorf("application service: create: %w", err)
	}
	return app, nil
}

// Get loads an application with its student and university.
func (s *ApplicationService) Get(ctx context.Context, id string) (*models.LoanApplication, error) {
	var app models.LoanApplication
	err := s.db.WithContext(ctx).
		Preload("Student").
		Preload("University").
		Where("id = ?", id).
		Take(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("application service: get: %w", err)
	}
	return &app, nil
}

// List returns applications, optionally filtered by status or student.
func (s *ApplicationService) List(ctx context.Context, opts ListOptions, status, studentID string) ([]models.LoanApplication, int64, error) {
	opts.normalise()

	query := s.db.WithContext(ctx).Model(&models.LoanApplication{})
	if st := strings.TrimSpace(status); st != "" {
		query = query.Where("status = ?", st)
	}
	if sid := strings.TrimSpace(studentID); sid != "" {
		query = query.Where("student_id = ?", sid)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("application service: count: %w", err)
	}

	var apps []models.LoanApplication
	err := query.
		Order("created_at DESC").
		Offset((opts.Page - 1) * opts.PageSize).
		Limit(opts.PageSize).
		Find(&apps).Error
	if err != nil {
		return nil, 0, fmt.Errorf("application service: list: %w", err)
	}
	return apps, total, nil
}

// SetStatus moves an application between pending/approved/rejected.
func (s *ApplicationService) SetStatus(ctx context.Context, id, status string) (*models.LoanApplication, error) {
	switch status {
	case models.ApplicationPending, models.ApplicationApproved, models.ApplicationRejected:
	default:
		return nil, apperrors.NewBadRequest("unknown application status")
	}

	res := s.db.WithContext(ctx).Model(&models.LoanApplication{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, fmt.Errorf("application service: set status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrNotFound
	}
	return s.Get(ctx, id)
}
