package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"transparencia/internal/auth"
	"transparencia/internal/config"
	"transparencia/internal/database"
	"transparencia/internal/handler"
	"transparencia/internal/metrics"
	"transparencia/internal/repository"
	"transparencia/internal/service"
	"transparencia/internal/service/s3"
	"transparencia/pkg/logger"
)

func main() {
	// Загружаем конфигурации
	appConfig, err := config.NewConfig(".app.env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.NewLogger(appConfig.App.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	if err := run(appConfig, zl); err != nil {
		zl.Fatal("service stopped with error", zap.Error(err))
	}
	zl.Info("server exited properly")
}

func run(appConfig *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// База данных: подключение, миграции, проверка схемы
	db, err := database.Connect(ctx, appConfig.Database, zl)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(appConfig.App.MigrationsPath, appConfig.Database.MigrateURL(), zl); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := database.CheckSchema(ctx, db); err != nil {
		return fmt.Errorf("schema check failed: %w", err)
	}

	// Инициализация S3 клиента
	s3Config, err := s3.NewConfig(".s3.env")
	if err != nil {
		return fmt.Errorf("failed to load S3 config: %w", err)
	}
	s3Client, err := s3.NewClient(ctx, s3Config, zl)
	if err != nil {
		return fmt.Errorf("failed to create S3 client: %w", err)
	}

	authConfig, err := auth.NewConfig(".auth.env")
	if err != nil {
		return fmt.Errorf("failed to load auth config: %w", err)
	}
	verifier := auth.NewVerifier(authConfig)

	m := metrics.New()
	clock := service.SystemClock{}

	// Инициализация репозиториев
	documentRepo := repository.NewDocumentRepository(db)
	versionRepo := repository.NewVersionRepository(db)
	biddingRepo := repository.NewBiddingRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	attachmentRepo := repository.NewBiddingDocumentRepository(db)

	// Инициализация сервисов
	permissionService := service.NewPermissionService()
	documentService := service.NewDocumentService(documentRepo, s3Client, permissionService, clock, m, zl)
	versionService := service.NewVersionService(documentRepo, versionRepo, s3Client, permissionService, clock, m, zl)
	biddingService := service.NewBiddingService(biddingRepo, movementRepo, s3Client, permissionService, clock, m, zl)
	attachmentService := service.NewBiddingDocumentService(biddingRepo, attachmentRepo, s3Client, permissionService, clock, m, zl)

	// Инициализация хендлеров
	maxUpload := appConfig.App.MaxUploadBytes()
	router := handler.NewRouter(handler.RouterDeps{
		Documents:        handler.NewDocumentHandler(documentService, m, zl),
		Versions:         handler.NewVersionHandler(versionService, maxUpload, m, zl),
		Biddings:         handler.NewBiddingHandler(biddingService, m, zl),
		BiddingDocuments: handler.NewBiddingDocumentHandler(attachmentService, maxUpload, m, zl),
		Taxonomy:         handler.NewTaxonomyHandler(m, zl),
		Verifier:         verifier,
		AllowedOrigins:   appConfig.Server.AllowedOrigins,
		Ready:            func(r *http.Request) error { return db.PingContext(r.Context()) },
		Logger:           zl,
	})

	httpServer := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// gRPC обслуживает только стандартный health-сервис для оркестратора
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lis, err := net.Listen("tcp", ":"+appConfig.Server.GRPCPort)
		if err != nil {
			return fmt.Errorf("failed to listen for gRPC: %w", err)
		}
		zl.Info("starting gRPC server", zap.String("port", appConfig.Server.GRPCPort))
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		zl.Info("starting HTTP server", zap.String("port", appConfig.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Graceful shutdown по сигналу или при падении одного из серверов
	g.Go(func() error {
		<-gctx.Done()
		zl.Info("shutting down servers")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			zl.Warn("HTTP server forced to shutdown", zap.Error(err))
		}
		grpcServer.GracefulStop()
		return nil
	})

	return g.Wait()
}
