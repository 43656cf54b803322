package api

import (
	"net/http"
	"time"

	"ubinan/monitoring-app/internal/domain"
	"ubinan/monitoring-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services bundles what the HTTP layer depends on.
type Services struct {
	Auth       service.AuthService
	Roster     service.RosterService
	Catalog    service.CatalogService
	Allocation service.AllocationService
	Sample     service.SampleService
	Progress   service.ProgressService
	Export     service.ExportService
}

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	services Services,
	defaultYear func(time.Time) int,
	logger *zap.Logger,
) {
	authHandler := NewAuthHandler(services.Auth, logger)
	rosterHandler := NewRosterHandler(services.Roster, logger)
	catalogHandler := NewCatalogHandler(services.Catalog, logger)
	allocationHandler := NewAllocationHandler(services.Allocation, logger)
	sampleHandler := NewSampleHandler(services.Sample, logger)
	reportHandler := NewReportHandler(services.Progress, services.Export, defaultYear, logger)

	can := RequireCapability

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	apiV1.POST("/auth/login", authHandler.Login)

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		protected.GET("/me", authHandler.Me)

		// --- Roster ---
		protected.POST("/users", can(domain.CapManageRoster), authHandler.Register)
		protected.GET("/users", can(domain.CapViewRoster), rosterHandler.ListUsers)
		protected.PUT("/users/:officerId/supervisor", can(domain.CapManageRoster), rosterHandler.LinkOfficer)
		protected.GET("/officers", can(domain.CapVerifySample), rosterHandler.MyOfficers)

		// --- Catalog ---
		protected.POST("/districts", can(domain.CapManageCatalog), catalogHandler.CreateDistrict)
		protected.GET("/districts", can(domain.CapViewCatalog), catalogHandler.ListDistricts)
		protected.POST("/districts/:districtId/villages", can(domain.CapManageCatalog), catalogHandler.CreateVillage)
		protected.GET("/villages", can(domain.CapViewCatalog), catalogHandler.ListVillages)
		protected.GET("/units", can(domain.CapViewCatalog), catalogHandler.ListUnits)
		protected.POST("/units/nks", can(domain.CapManageCatalog), catalogHandler.CreateNks)
		protected.POST("/units/segmen", can(domain.CapManageCatalog), catalogHandler.CreateSegmen)
		protected.PUT("/units/:kind/:unitId/target", can(domain.CapManageCatalog), catalogHandler.UpdateTarget)

		// --- Allocation ---
		protected.GET("/allocations", can(domain.CapViewAlloc), allocationHandler.Status)
		protected.POST("/allocations", can(domain.CapManageAlloc), allocationHandler.Assign)
		protected.POST("/allocations/batch", can(domain.CapManageAlloc), allocationHandler.AssignMany)
		protected.DELETE("/allocations", can(domain.CapManageAlloc), allocationHandler.Unassign)

		// --- Samples ---
		samples := protected.Group("/samples")
		{
			samples.GET("", can(domain.CapViewSamples), sampleHandler.List)
			samples.POST("", can(domain.CapSubmitSample), sampleHandler.Create)
			samples.GET("/:sampleId", can(domain.CapViewSamples), sampleHandler.Get)
			samples.PUT("/:sampleId", can(domain.CapSubmitSample), sampleHandler.Fill)
			samples.POST("/:sampleId/verify", can(domain.CapVerifySample), sampleHandler.Verify)
			samples.POST("/:sampleId/photo/upload-url", can(domain.CapSubmitSample), sampleHandler.RequestPhotoUploadURL)
			samples.POST("/:sampleId/photo/confirm", can(domain.CapSubmitSample), sampleHandler.ConfirmPhotoUpload)
			samples.GET("/:sampleId/photo", can(domain.CapViewSamples), sampleHandler.PhotoDownloadURL)
		}

		// --- Reports ---
		protected.GET("/progress", can(domain.CapViewProgress), reportHandler.Progress)
		protected.GET("/targets", can(domain.CapViewProgress), reportHandler.Targets)
		protected.GET("/reports/xlsx", can(domain.CapExportReports), reportHandler.Download)
		protected.POST("/reports/publish", can(domain.CapExportReports), reportHandler.Publish)
	}
}
