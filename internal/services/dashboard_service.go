package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/edulend/edulend/internal/models"
)

// DashboardSummary aggregates platform counts for the admin dashboard.
type DashboardSummary struct {
	Students             int64 `json:"students"`
	Universities         int64 `json:"universities"`
	Applications         int64 `json:"applications"`
	PendingApplications  int64 `json:"pending_applications"`
	ApprovedApplications int64 `json:"approved_applications"`
	RejectedApplications int64 `json:"rejected_applications"`
	TotalRequested       int64 `json:"total_requested"`
}

// DashboardService computes read-only aggregates over the store.
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(db *gorm.DB) (*DashboardService, error) {
	if db == nil {
		return nil, errors.New("dashboard service: db is required")
	}
	return &DashboardService{db: db}, nil
}

// Summary computes the dashboard aggregates in a single pass per table.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	summary := &DashboardSummary{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Student{}).Count(&summary.Students).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: count students: %w", err)
	}
	if err := db.Model(&models.University{}).Count(&summary.Universities).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: count universities: %w", err)
	}
	if err := db.Model(&models.LoanApplication{}).Count(&summary.Applications).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: count applications: %w", err)
	}

	byStatus := map[string]*int64{
		models.ApplicationPending:  &summary.PendingApplications,
		models.ApplicationApproved: &summary.ApprovedApplications,
		models.ApplicationRejected: &summary.RejectedApplications,
	}
	for status, target := range byStatus {
		if err := db.Model(&models.LoanApplication{}).Where("status = ?", status).Count(target).Error; err != nil {
			return nil, fmt.Errorf("dashboard service: count %s applications: %w", status, err)
		}
	}

	var total struct{ Total int64 }
	if err := db.Model(&models.LoanApplication{}).Select("COALESCE(SUM(amount), 0) AS total").Scan(&total).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: sum amounts: %w", err)
	}
	summary.TotalRequested = total.Total

	return summary, nil
}
