package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"jurisync/internal/domain/entity"
	"jurisync/internal/domain/sqlite"
	"jurisync/internal/domain/sqlite/repository"
	handler2 "jurisync/internal/http/handler"
	gatemw "jurisync/internal/http/middleware"
	"jurisync/internal/infrastructure/aws/storage"
	"jurisync/internal/infrastructure/partner"
	"jurisync/internal/service"
	"jurisync/internal/service/jobs"
	"jurisync/internal/utils/uid"
	"jurisync/internal/utils/validators"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

const (
	envVarsPrefix = "/jurisync/prod/"

	partnerTimeout  = 30 * time.Second
	documentTimeout = 60 * time.Second
)

func main() {
	validate := validator.New()
	registerValidators(validate)

	// Loads env vars depending on environment
	if os.Getenv("GO_ENV") == "production" {
		loadProdEnv() // AWS SSM Parameter Store
	} else {
		// Loads from .env
		err := godotenv.Load()
		if err != nil {
			panic(err)
		}
	}

	uid.Init(machineID())

	// Init SQLite
	db, err := sqlite.Init()
	if err != nil {
		panic(err)
	}

	// Init S3 client
	docStore, err := storage.NewDocumentStore()
	if err != nil {
		panic(err)
	}

	partnerClient := partner.NewClient(partnerTimeout)

	// Getting repos
	partnerRepo := repository.NewPartnerRepository(db)
	processRepo := repository.NewProcessRepository(db)
	distRepo := repository.NewDistributionRepository(db)
	pubRepo := repository.NewPublicationRepository(db)
	syncLogRepo := repository.NewSyncLogRepository(db)
	securityRepo := repository.NewSecurityRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	webhookRepo := repository.NewWebhookRepository(db)
	termRepo := repository.NewTermRepository(db)

	// Getting services
	webhookService := service.NewWebhookService(webhookRepo, validate)
	confirmer := service.NewBatchConfirmer(partnerClient)
	materializer := service.NewDocumentMaterializer(processRepo, docStore, documentTimeout)
	orchestrator := service.NewSyncOrchestrator(
		partnerRepo, syncLogRepo, processRepo, distRepo, pubRepo,
		partnerClient, confirmer, materializer, webhookService,
	)
	processService := service.NewProcessService(processRepo, partnerRepo, deliveryRepo, partnerClient, validate)
	distService := service.NewDistributionService(distRepo, deliveryRepo)
	pubService := service.NewPublicationService(pubRepo, deliveryRepo)
	termService := service.NewTermService(termRepo, partnerRepo, partnerClient, validate)

	// Getting handlers
	processRoutes := handler2.NewProcessDefault(processService)
	feedRoutes := handler2.NewFeedDefault(distService, pubService, processService)
	webhookRoutes := handler2.NewWebhookDefault(webhookService)
	syncRoutes := handler2.NewSyncDefault(orchestrator, syncLogRepo, validate)
	termRoutes := handler2.NewTermDefault(termService)

	gate := gatemw.NewSecurityGate(securityRepo)
	if raw := os.Getenv("RATE_LIMIT_DEFAULT"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			gate.DefaultRateLimit = limit
		}
	}
	internalAuth := gatemw.NewInternalAuth(os.Getenv("INTERNAL_API_TOKEN"))

	// Background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()
	go jobs.NewSecurityCleaner(securityRepo).Start(jobCtx)
	if interval := syncInterval(); interval > 0 {
		go jobs.NewSyncScheduler(orchestrator, interval).Start(jobCtx)
	}

	e := echo.New()
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("10M"))

	// Processes
	procGate := gate.Require(entity.ServiceProcesses)
	e.GET("/api/processes", processRoutes.GetProcesses, procGate)
	e.GET("/api/processes/:id", processRoutes.GetProcess, procGate)
	e.POST("/api/processes", processRoutes.CreateProcess, procGate)
	e.PATCH("/api/processes/:id", processRoutes.UpdateProcess, procGate)

	// Distributions
	distGate := gate.Require(entity.ServiceDistributions)
	e.GET("/api/distributions", feedRoutes.GetDistributions, distGate)
	e.GET("/api/distributions/:id", feedRoutes.GetDistribution, distGate)
	e.POST("/api/distributions", feedRoutes.ConfirmDistributions, distGate)

	// Publications
	pubGate := gate.Require(entity.ServicePublications)
	e.GET("/api/publications", feedRoutes.GetPublications, pubGate)
	e.GET("/api/publications/:id", feedRoutes.GetPublication, pubGate)
	e.POST("/api/publications", feedRoutes.ConfirmPublications, pubGate)

	// Webhooks are managed with any entitled token
	hookGate := gate.Require(entity.ServiceProcesses)
	e.GET("/api/webhooks", webhookRoutes.GetWebhooks, hookGate)
	e.POST("/api/webhooks", webhookRoutes.CreateWebhook, hookGate)
	e.DELETE("/api/webhooks/:id", webhookRoutes.DeleteWebhook, hookGate)

	// Operator surface
	e.POST("/internal/sync", syncRoutes.TriggerSync, internalAuth)
	e.GET("/internal/sync/logs", syncRoutes.GetSyncLogs, internalAuth)
	e.GET("/internal/terms", termRoutes.GetTerms, internalAuth)
	e.POST("/internal/terms", termRoutes.CreateTerm, internalAuth)
	e.PATCH("/internal/terms/:id", termRoutes.UpdateTerm, internalAuth)
	e.DELETE("/internal/terms/:id", termRoutes.DeleteTerm, internalAuth)
	e.GET("/internal/coverages", termRoutes.GetCoverages, internalAuth)
	e.PATCH("/internal/processes/:id/status", processRoutes.SetProcessStatus, internalAuth)

	// Docker Compose healthcheck
	e.GET("/health", healthCheckRoute)

	if err := e.Start(":7070"); err != nil {
		panic(err)
	}
}

func registerValidators(validate *validator.Validate) {
	_ = validate.RegisterValidation("cnj", validators.CNJ)
	_ = validate.RegisterValidation("nodupes", validators.NoDupes)
	_ = validate.RegisterValidation("nospaces", validators.NoWhiteSpaces)
}

func machineID() int64 {
	raw := os.Getenv("UID_MACHINE_ID")
	if raw == "" {
		return 1
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Fatalf("invalid UID_MACHINE_ID value %q", raw)
	}
	return id
}

func syncInterval() time.Duration {
	raw := os.Getenv("SYNC_INTERVAL_MINUTES")
	if raw == "" {
		return 0
	}

	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		log.Warnf("ignoring invalid SYNC_INTERVAL_MINUTES value %q", raw)
		return 0
	}
	return time.Duration(minutes) * time.Minute
}

func loadProdEnv() {
	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion("sa-east-1"))
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	client := ssm.NewFromConfig(cfg)
	out, err := client.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
		Path:           aws.String(envVarsPrefix),
		WithDecryption: aws.Bool(true),
		Recursive:      aws.Bool(true),
	})
	if err != nil {
		log.Fatalf("unable to load prod environment, %v", err)
	}

	prefixLength := len(envVarsPrefix)
	// Export vars
	for _, param := range out.Parameters {
		key := (*param.Name)[prefixLength:]
		value := *param.Value
		enverr := os.Setenv(key, value)
		if enverr != nil {
			log.Fatalf("unable to set environment variable, %v", enverr)
		}
	}
	log.Debugf("loaded %d prod environment variables", len(out.Parameters))
}

func healthCheckRoute(c echo.Context) error {
	return c.String(200, "OK")
}
