package main

import (
	"context"
	"fmt"
	"os"

	"ubinan/monitoring-app/internal/config"
	"ubinan/monitoring-app/internal/logger"
	"ubinan/monitoring-app/internal/repository/mongo"
	"ubinan/monitoring-app/internal/service"
	"ubinan/monitoring-app/internal/storage"

	"github.com/spf13/cobra"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:          "ubinan",
		Short:        "Crop-cutting survey monitoring server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", ".", "Directory containing config.yaml")

	root.AddCommand(
		newServeCmd(&configPath),
		newExportCmd(&configPath),
		newCreateAdminCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the wired dependency graph shared by every command.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	client   *mongodriver.Client
	services apiServices
}

type apiServices struct {
	auth       service.AuthService
	roster     service.RosterService
	catalog    service.CatalogService
	allocation service.AllocationService
	sample     service.SampleService
	progress   service.ProgressService
	export     service.ExportService
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	client, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	db := client.Database(cfg.Database.Name)
	log.Info("database connection established", zap.String("database", cfg.Database.Name))

	if err := mongo.EnsureIndexes(ctx, db, log); err != nil {
		_ = mongo.DisconnectDB(client)
		return nil, fmt.Errorf("ensure assignment indexes: %w", err)
	}

	fileStorage, err := storage.NewS3Storage(ctx, cfg.S3, log)
	if err != nil {
		_ = mongo.DisconnectDB(client)
		return nil, fmt.Errorf("init S3 storage: %w", err)
	}

	userRepo := mongo.NewMongoUserRepository(db)
	regionRepo := mongo.NewMongoRegionRepository(db)
	nksRepo := mongo.NewMongoNksRepository(db)
	segmenRepo := mongo.NewMongoSegmenRepository(db)
	assignmentRepo := mongo.NewMongoAssignmentRepository(db)
	sampleRepo := mongo.NewMongoSampleRepository(db)
	uploadRepo := mongo.NewMongoUploadRepository(db)

	a := &app{cfg: cfg, logger: log, client: client}
	a.services.auth = service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	a.services.roster = service.NewRosterService(userRepo, log)
	a.services.catalog = service.NewCatalogService(regionRepo, nksRepo, segmenRepo)
	a.services.allocation = service.NewAllocationService(userRepo, nksRepo, segmenRepo, assignmentRepo, log)
	a.services.sample = service.NewSampleService(sampleRepo, assignmentRepo, uploadRepo, fileStorage, log)
	a.services.progress = service.NewProgressService(nksRepo, segmenRepo, assignmentRepo, sampleRepo, log)
	a.services.export = service.NewExportService(a.services.progress, a.services.allocation, a.services.roster, fileStorage,
		service.ExportOptions{Prefix: cfg.Report.ExportPrefix, LinkExpiry: cfg.Report.LinkExpiry}, log)
	return a, nil
}

func (a *app) Close() {
	if err := mongo.DisconnectDB(a.client); err != nil {
		a.logger.Error("failed to disconnect MongoDB", zap.Error(err))
	}
	_ = a.logger.Sync()
}
