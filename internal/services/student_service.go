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

// CreateStudentInput describes the fields accepted when creating a student profile.
type CreateStudentInput struct {
	UserID string
	Name   string
	Email  string
	Phone  string
	PAN    string
}

// UpdateStudentInput enumerates mutable student attributes.
type UpdateStudentInput struct {
	Name  *string
	Phone *string
}

// ListOptions controls pagination for listing endpoints.
type ListOptions struct {
	Page     int
	PageSize int
	Query    string
}

func (o *ListOptions) normalise() {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 || o.PageSize > 100 {
		o.PageSize = 20
	}
}

// StudentService manages loan-applicant profiles.
type StudentService struct {
	db *gorm.DB
}

// NewStudentService constructs a StudentService instance.
func NewStudentService(db *gorm.DB) (*StudentService, error) {
	if db == nil {
		return nil, errors.New("student service: db is required")
	}
	return &StudentService{db: db}, nil
}

// Create provisions a student profile.
func (s *StudentService) Create(ctx context.Context, input CreateStudentInput) (*models.Student, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}

	student := &models.Student{
		UserID: strings.TrimSpace(input.UserID),
		Name:   name,
		Email:  email,
		Phone:  strings.TrimSpace(input.Phone),
		PAN:    strings.ToUpper(strings.TrimSpace(input.PAN)),
	}

	if err := s.db.WithContext(ctx).Create(student).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBadRequest("a student with this PAN already exists")
		}
		return nil, fmt.Errorf("student service: create: %w", err)
	}
	return student, nil
}

// Get loads a single student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	err := s.db.WithContext(ctx).Preload("Applications").Where("id = ?", id).Take(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("student service: get: %w", err)
	}
	return &student, nil
}

// List returns students with pagination and an optional name/email filter.
func (s *StudentService) List(ctx context.Context, opts ListOptions) ([]models.Student, int64, error) {
	opts.normalise()

	query := s.db.WithContext(ctx).Model(&models.Student{})
	if q := strings.TrimSpace(opts.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("student service: count: %w", err)
	}

	var students []models.Student
	err := query.
		Order("created_at DESC").
		Offset((opts.Page - 1) * opts.PageSize).
		Limit(opts.PageSize).
		Find(&students).Error
	if err != nil {
		return nil, 0, fmt.Errorf("student service: list: %w", err)
	}
	return students, total, nil
}

// Update mutates the allowed student attributes.
func (s *StudentService) Update(ctx context.Context, id string, input UpdateStudentInput) (*models.Student, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(student).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("student service: update: %w", err)
		}
	}
	return student, nil
}

// Delete removes a student and their applications.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", id).Delete(&models.LoanApplication{}).Error; err != nil {
			return fmt.Errorf("student service: delete applications: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Student{})
		if res.Error != nil {
			return fmt.Errorf("student service: delete: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}
