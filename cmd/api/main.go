package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/Dansonhar/QBOTU-System-Support-sub000/internal/api/http"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/api/http/handlers"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/auth"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/autoreply"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/config"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/events"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/observability"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/persistence"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/poller"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/repository"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/service"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool, cfg.Ticket.NumberPrefix)
	replyRepo := repository.NewReplyRepository(pool)
	articleRepo := repository.NewArticleRepository(pool, redis.Client, cfg.Responder.ArticleCacheTTL(), logger)
	agentRepo := repository.NewAgentRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notifications)

	responder := autoreply.NewResponder(articleRepo, logger)
	conversations := service.NewConversationService(service.ConversationDependencies{
		TicketRepo: ticketRepo,
		ReplyRepo:  replyRepo,
		Responder:  responder,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	agentAuth := service.NewAgentAuthService(cfg.Auth, agentRepo, logger)
	if err := agentAuth.EnsureBootstrapAgent(ctx); err != nil {
		logger.Warn("bootstrap agent setup failed", zap.Error(err))
	}
	agentMiddleware := auth.NewAgentMiddleware(agentAuth.TokenManager(), agentRepo)

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(),
		Support:         handlers.NewSupportHandler(conversations),
		AgentTickets:    handlers.NewAgentTicketsHandler(conversations),
		AgentAuth:       handlers.NewAgentAuthHandler(agentAuth),
		AgentMiddleware: agentMiddleware,
	})

	if cfg.Poller.Enabled {
		unreadPoller := poller.New(conversations, cfg.Poller.Interval(), logger, nil)
		go unreadPoller.Run(ctx)
	}

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
