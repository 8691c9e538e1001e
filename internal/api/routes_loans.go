package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/edulend/edulend/internal/handlers"
	"github.com/edulend/edulend/internal/middleware"
	"github.com/edulend/edulend/internal/models"
	"github.com/edulend/edulend/internal/services"
)

// registerLoanRoutes mounts the student, university, application and dashboard
// route groups. Reads are open to any authenticated user; writes that shape
// the catalogue or decide applications are admin-gated with a fresh role
// lookup per request.
func registerLoanRoutes(api *gin.RouterGroup, db *gorm.DB, requireAuth gin.HandlerFunc) error {
	studentSvc, err := services.NewStudentService(db)
	if err != nil {
		return err
	}
	universitySvc, err := services.NewUniversityService(db)
	if err != nil {
		return err
	}
	applicationSvc, err := services.NewApplicationService(db)
	if err != nil {
		return err
	}
	dashboardSvc, err := services.NewDashboardService(db)
	if err != nil {
		return err
	}

	studentsHandler := handlers.NewStudentsHandler(studentSvc)
	universitiesHandler := handlers.NewUniversitiesHandler(universitySvc)
	applicationsHandler := handlers.NewApplicationsHandler(applicationSvc)
	dashboardHandler := handlers.NewDashboardHandler(dashboardSvc)

	requireAdmin := middleware.RequireRole(db, models.RoleAdmin, models.RoleSuperAdmin)

	students := api.Group("/students")
	students.Use(requireAuth)
	{
		students.POST("", studentsHandler.Create)
		students.GET("", studentsHandler.List)
		students.GET("/:id", studentsHandler.Get)
		students.PUT("/:id", studentsHandler.Update)
		students.DELETE("/:id", requireAdmin, studentsHandler.Delete)
	}

	universities := api.Group("/universities")
	universities.Use(requireAuth)
	{
		universities.GET("", universitiesHandler.List)
		universities.GET("/:id", universitiesHandler.Get)
		universities.POST("", requireAdmin, universitiesHandler.Create)
		universities.DELETE("/:id", requireAdmin, universitiesHandler.Delete)
	}

	applications := api.Group("/applications")
	applications.Use(requireAuth)
	{
		applications.POST("", applicationsHandler.Create)
		applications.GET("", applicationsHandler.List)
		applications.GET("/:id", applicationsHandler.Get)
		applications.PATCH("/:id/status", requireAdmin, applicationsHandler.SetStatus)
	}

	dashboard := api.Group("/dashboard")
	dashboard.Use(requireAuth, requireAdmin)
	{
		dashboard.GET("/summary", dashboardHandler.Summary)
	}

	api.GET("/cibil/:pan", requireAuth, dashboardHandler.CibilScore)

	return nil
}
