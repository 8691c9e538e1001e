package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/edulend/edulend/internal/models"
	apperrors "github.com/edulend/edulend/pkg/errors"
)

func openLoanTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.University{},
		&models.LoanApplication{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func TestStudentCreateNormalisesInput(t *testing.T) {
	db := openLoanTestDB(t)
	svc, err := NewStudentService(db)
	require.NoError(t, err)

	student, err := svc.Create(context.Background(), CreateStudentInput{
		Name:  "  Asha Rao ",
		Email: " Asha@Example.COM ",
		Phone: " 9876543210 ",
		PAN:   " abcde1234f ",
	})
	require.NoError(t, err)
	require.Equal(t, "Asha Rao", student.Name)
	require.Equal(t, "asha@example.com", student.Email)
	require.Equal(t, "9876543210", student.Phone)
	require.Equal(t, "ABCDE1234F", student.PAN)
	require.NotEmpty(t, student.ID)
}

func TestStudentCreateRejectsDuplicatePAN(t *testing.T) {
	db := openLoanTestDB(t)
	svc, err := NewStudentService(db)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateStudentInput{Name: "One", Email: "one@example.com", PAN: "ABCDE1234F"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateStudentInput{Name: "Two", Email: "two@example.com", PAN: "abcde1234f"})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestStudentGetNotFound(t *testing.T) {
	db := openLoanTestDB(t)
	svc, err := NewStudentService(db)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStudentListFiltersByQuery(t *testing.T) {
	db := openLoanTestDB(t)
	svc, err := NewStudentService(db)
	require.NoError(t, err)

	for _, s := range []CreateStudentInput{
		{Name: "Asha Rao", Email: "asha@example.com", PAN: "AAAAA0001A"},
		{Name: "Bilal Khan", Email: "bilal@example.com", PAN: "BBBBB0002B"},
		{Name: "Asha Verma", Email: "verma@example.com", PAN: "CCCCC0003C"},
	} {
		_, err := svc.Create(context.Background(), s)
		require.NoError(t, err)
	}

	students, total, err := svc.List(context.Background(), ListOptions{Query: "asha"})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, students, 2)

	students, total, err = svc.List(context.Background(), ListOptions{PageSize: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, students, 2)
}

func TestStudentUpdateMutatesOnlyProvidedFields(t *testing.T) {
	db := openLoanTestDB(t)
	svc, err := NewStudentService(db)
	require.NoError(t, err)

	student, err := svc.Create(context.Background(), CreateStudentInput{Name: "Asha", Email: "asha@example.com", Phone: "111", PAN: "AAAAA0001A"})
	require.NoError(t, err)

	phone := "222"
	updated, err := svc.Update(context.Background(), student.ID, UpdateStudentInput{Phone: &phone})
	require.NoError(t, err)
	require.Equal(t, "222", updated.Phone)
	require.Equal(t, "Asha", updated.Name)
}

func TestStudentDeleteRemovesApplications(t *testing.T) {
	db := openLoanTestDB(t)
	students, err := NewStudentService(db)
	require.NoError(t, err)
	unis, err := NewUniversityService(db)
	require.NoError(t, err)
	apps, err := NewApplicationService(db)
	require.NoError(t, err)

	student, err := students.Create(context.Background(), CreateStudentInput{Name: "Asha", Email: "asha@example.com", PAN: "AAAAA0001A"})
	require.NoError(t, err)
	uni, err := unis.Create(context.Background(), CreateUniversityInput{Name: "MIT", Country: "USA"})
	require.NoError(t, err)
	_, err = apps.Create(context.Background(), CreateApplicationInput{StudentID: student.ID, UniversityID: uni.ID, Amount: 500000})
	require.NoError(t, err)

	require.NoError(t, students.Delete(context.Background(), student.ID))

	var count int64
	require.NoError(t, db.Model(&models.LoanApplication{}).Count(&count).Error)
	require.Zero(t, count)

	require.ErrorIs(t, students.Delete(context.Background(), student.ID), apperrors.ErrNotFound)
}
