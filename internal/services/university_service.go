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

// CreateUniversityInput describes the fields accepted when adding a university.
type CreateUniversityInput struct {
	Name       string
	Country    string
	Ranking    int
	TuitionFee int64
}

// UniversityService manages the study-destination catalogue.
type UniversityService struct {
	db *gorm.DB
}

// NewUniversityService constructs a UniversityService instance.
func NewUniversityService(db *gorm.DB) (*UniversityService, error) {
	if db == nil {
		return nil, errors.New("university service: db is required")
	}
	return &UniversityService{db: db}, nil
}

// Create adds a university to the catalogue.
func (s *UniversityService) Create(ctx context.Context, input CreateUniversityInput) (*models.University, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}

	uni := &models.University{
		Name:       name,
		Country:    strings.TrimSpace(input.Country),
		Ranking:    input.Ranking,
		TuitionFee: input.TuitionFee,
	}
	if err := s.db.WithContext(ctx).Create(uni).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBadRequest("a university with this name already exists")
		}
		return nil, fmt.Errorf("university service: create: %w", err)
	}
	return uni, nil
}

// Get loads a single university by id.
func (s *UniversityService) Get(ctx context.Context, id string) (*models.University, error) {
	var uni models.University
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&uni).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("university service: get: %w", err)
	}
	return &uni, nil
}

// List returns universities, optionally filtered by country.
func (s *UniversityService) List(ctx context.Context, opts ListOptions, country string) ([]models.University, int64, error) {
	opts.normalise()

	query := s.db.WithContext(ctx).Model(&models.University{})
	if c := strings.TrimSpace(country); c != "" {
		query = query.Where("LOWER(country) = LOWER(?)", c)
	}
	if q := strings.TrimSpace(opts.Query); q != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("university service: count: %w", err)
	}

	var unis []models.University
	err := query.
		Order("ranking ASC").
		Offset((opts.Page - 1) * opts.PageSize).
		Limit(opts.PageSize).
		Find(&unis).Error
	if err != nil {
		return nil, 0, fmt.Errorf("university service: list: %w", err)
	}
	return unis, total, nil
}

// Delete removes a university from the catalogue.
func (s *UniversityService) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.University{})
	if res.Error != nil {
		return fmt.Errorf("university service: delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
