package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appbilling "github.com/gharbeti/backend/internal/application/billing"
	"github.com/gharbeti/backend/internal/domain/ledger"
	"github.com/gharbeti/backend/internal/domain/shared"
	"github.com/gharbeti/backend/internal/domain/shared/valueobject"
	"github.com/gharbeti/backend/internal/infrastructure/config"
	"github.com/gharbeti/backend/internal/infrastructure/locking"
	"github.com/gharbeti/backend/internal/infrastructure/logger"
	"github.com/gharbeti/backend/internal/infrastructure/notification"
	"github.com/gharbeti/backend/internal/infrastructure/persistence"
	"github.com/gharbeti/backend/internal/infrastructure/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Gharbeti billing backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with zap-backed GORM logging
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Redis backs the cross-instance run lease and the notification stream
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	var sink appbilling.NotificationSink
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warn("Redis unavailable, notifications will only be logged", zap.Error(err))
		sink = notification.NewLogSink(log)
	} else {
		sink = notification.NewRedisStreamSink(redisClient, cfg.Billing.NotificationStream, log)
	}

	// Repositories
	recordRepo := persistence.NewGormBillingRecordRepository(db.DB)
	tenancyRepo := persistence.NewGormTenancyRepository(db.DB)
	auditLogRepo := persistence.NewGormAuditLogRepository(db.DB)
	adminRepo := persistence.NewGormAdminRepository(db.DB)
	policySource := persistence.NewGormPolicySource(db.DB)
	uow := persistence.NewGormUnitOfWork(db.DB)

	// Journal builder with the deployment's chart-of-accounts codes
	builder := ledger.NewBuilder(ledger.StaticAccountLookup{
		ledger.AccountReceivable:     cfg.Accounts.Receivable,
		ledger.AccountRentRevenue:    cfg.Accounts.RentRevenue,
		ledger.AccountCAMRevenue:     cfg.Accounts.CAMRevenue,
		ledger.AccountLateFeeRevenue: cfg.Accounts.LateFeeRevenue,
		ledger.AccountCash:           cfg.Accounts.Cash,
		ledger.AccountTDSWithholding: cfg.Accounts.TDSWithholding,
	})

	// Application services
	orchestrator := appbilling.NewOrchestrator(appbilling.OrchestratorParams{
		UnitOfWork:    uow,
		Records:       recordRepo,
		Tenancies:     tenancyRepo,
		AuditLog:      auditLogRepo,
		Policies:      policySource,
		Builder:       builder,
		Admins:        adminRepo,
		Notifier:      sink,
		Lease:         locking.NewRedisRunLease(redisClient, cfg.Billing.RunLeaseTTL, log),
		Clock:         appbilling.SystemClock{},
		Logger:        log,
		SystemAdminID: cfg.Billing.SystemAdminUUID(),
	})
	paymentService := appbilling.NewPaymentService(uow, builder, appbilling.SystemClock{}, log)

	// Daily trigger
	trigger := scheduler.NewDailyTrigger(scheduler.DailyTriggerConfig{
		RunHour:       cfg.Scheduler.RunHour,
		RunMinute:     cfg.Scheduler.RunMinute,
		CheckInterval: cfg.Scheduler.CheckInterval,
	}, orchestrator, log)

	if cfg.Scheduler.Enabled {
		if err := trigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start daily trigger", zap.Error(err))
		}
	} else {
		log.Warn("Daily billing trigger is disabled, runs must be triggered manually")
	}

	// Ops HTTP surface
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", healthHandler(db))
	engine.POST("/internal/billing/run", runHandler(trigger, log))
	engine.POST("/internal/billing/records/:id/payments", paymentHandler(paymentService))
	engine.POST("/internal/billing/records/:id/cancel", cancelHandler(paymentService))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := trigger.Stop(ctx); err != nil {
		log.Error("Daily trigger did not stop cleanly", zap.Error(err))
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports process and database health
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}

// runHandler triggers a billing cycle outside the daily schedule
func runHandler(trigger *scheduler.DailyTrigger, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := trigger.TriggerNow(c.Request.Context())
		switch {
		case errors.Is(err, appbilling.ErrRunActive), errors.Is(err, appbilling.ErrLeaseUnavailable):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case err != nil:
			log.Error("Manual billing run failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusOK, gin.H{
				"date":  result.Date.String(),
				"steps": result.Steps,
			})
		}
	}
}

type paymentRequest struct {
	Amount          string `json:"amount" binding:"required"`
	BankAccountCode string `json:"bank_account_code"`
}

// paymentHandler applies a payment to a billing record
func paymentHandler(payments *appbilling.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		recordID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
			return
		}

		var req paymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		amount, err := valueobject.FromRupeesString(req.Amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
			return
		}

		result, err := payments.RecordPayment(c.Request.Context(), recordID, amount, req.BankAccountCode)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// cancelHandler voids a billing record
func cancelHandler(payments *appbilling.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		recordID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
			return
		}

		var req cancelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := payments.CancelRecord(c.Request.Context(), recordID, req.Reason); err != nil {
			writeDomainError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func writeDomainError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status := http.StatusUnprocessableEntity
		switch domainErr.Code {
		case "NOT_FOUND":
			status = http.StatusNotFound
		case "CONCURRENCY_CONFLICT":
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"code": domainErr.Code, "error": domainErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
