package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/cache"
	"social-publisher/infrastructure/clients/platforms"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/logger"
	"social-publisher/infrastructure/persistence"
	"social-publisher/infrastructure/pubsub"
	"social-publisher/infrastructure/realtime"
	"social-publisher/infrastructure/servicebus"
	httpHandler "social-publisher/interfaces/http"
	"social-publisher/server"
	"social-publisher/usecase"

	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App
	publishCfg := configuration.C.Publish

	psqlDb, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		os.Exit(1)
	}
	for _, ensure := range []func() error{
		func() error { return persistence.EnsureUserSchema(psqlDb) },
		func() error { return persistence.EnsureAccountSchema(psqlDb) },
		func() error { return persistence.EnsurePublishSchema(psqlDb) },
	} {
		if err := ensure(); err != nil {
			logger.GetLogger().WithField("error", err).Error("Failed ensuring schema")
		}
	}

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without audit trail")
		mongoDb = nil
	} else if err := mongoDb.Ping(ctx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without audit trail")
		mongoDb = nil
	}

	// OAuth state: redis when configured, in-process fallback otherwise.
	stateTTL := time.Duration(publishCfg.StateTTLMinutes) * time.Minute
	var stateStore repository.IOAuthState
	redisClient, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - using in-memory OAuth state store")
		stateStore = cache.NewMemoryStateStore(stateTTL)
	} else {
		stateStore = cache.NewStateStore(redisClient, stateTTL)
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub not available - continuing without job events")
		pubSubClient = nil
	}
	azServiceBusClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without job events")
		azServiceBusClient = nil
	}

	registry := platforms.NewRegistry(
		platforms.NewFacebook(configuration.C.OAuth.Facebook),
		platforms.NewInstagram(configuration.C.OAuth.Instagram),
		platforms.NewTwitter(configuration.C.OAuth.Twitter),
		platforms.NewLinkedIn(configuration.C.OAuth.LinkedIn),
		platforms.NewTikTok(configuration.C.OAuth.TikTok),
		platforms.NewYouTube(configuration.C.OAuth.YouTube),
	)
	logger.GetLogger().WithField("platforms", registry.Platforms()).Info("Platform adapters registered")

	userRepository := persistence.NewUserRepository(psqlDb)

	// Account registry can live on Azure SQL (DB_VENDOR=mssql); jobs and users
	// stay on PostgreSQL either way.
	var accountRepository repository.IConnectedAccount
	if os.Getenv("DB_VENDOR") == "mssql" {
		mssqlDb, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL (DB_VENDOR=mssql); falling back to PostgreSQL")
		} else {
			accountRepository = persistence.NewAccountRepositoryMSSQL(mssqlDb)
		}
	}
	if accountRepository == nil {
		accountRepository = persistence.NewAccountRepository(psqlDb)
	}
	jobRepository := persistence.NewPublishJobRepository(psqlDb)
	auditRepository := persistence.NewAuditRepository(mongoDb, configuration.C.Database.Mongo.Name)

	vault := usecase.NewTokenVault(accountRepository, registry,
		time.Duration(publishCfg.RefreshMarginSeconds)*time.Second)

	orchestrator := usecase.NewOrchestrator(
		jobRepository, accountRepository, auditRepository, vault, registry,
		time.Duration(publishCfg.PollIntervalSeconds)*time.Second,
		time.Duration(publishCfg.ContainerDeadlineSeconds)*time.Second,
	)
	jobHub := realtime.NewJobHub()
	orchestrator.SetObserver(jobHub)
	if pubSubClient != nil {
		events := pubsub.NewJobEventPublisher(pubSubClient, configuration.C.Pubsub.Topic)
		orchestrator.AddSink(func(ctx context.Context, job *model.PublishJob) {
			if err := events.PublishJobEvent(ctx, job); err != nil {
				logger.GetLogger().WithField("error", err).Error("Failed publishing job event")
			}
		})
	}
	if azServiceBusClient != nil {
		sender := servicebus.NewJobEventSender(azServiceBusClient, configuration.C.ServiceBus.Queue)
		orchestrator.AddSink(func(ctx context.Context, job *model.PublishJob) {
			if err := sender.SendJobEvent(ctx, job); err != nil {
				logger.GetLogger().WithField("error", err).Error("Failed sending job event")
			}
		})
	}

	userUsecase := usecase.NewUserUsecase(userRepository)
	authUsecase := usecase.NewSocialAuthUsecase(accountRepository, stateStore, registry)
	publishUsecase := usecase.NewPublishUsecase(accountRepository, jobRepository, registry, orchestrator)

	userHandler := httpHandler.NewUserHandler(userUsecase)
	socialAuthHandler := httpHandler.NewSocialAuthHandler(authUsecase)
	publishHandler := httpHandler.NewPublishHandler(publishUsecase)

	router := server.InitiateRouter(userHandler, socialAuthHandler, publishHandler, jobHub)

	// Recovery/dispatch loop: picks up stale jobs after restarts and launches
	// scheduled jobs when they come due.
	g.Go(func() error {
		orchestrator.RunRecovery(ctx, 15*time.Second, publishCfg.RecoveryBatchSize)
		return ctx.Err()
	})

	logger.GetLogger().WithFields(map[string]interface{}{"port": app.Port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", app.Port),
			Handler: router,
		}
		if app.TLSEnabled && app.TLSCertFile != "" && app.TLSKeyFile != "" {
			if err := httpServer.ListenAndServeTLS(app.TLSCertFile, app.TLSKeyFile); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
		if app.TLSEnabled {
			logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}
