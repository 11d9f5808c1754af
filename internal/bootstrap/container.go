package bootstrap

import (
	"context"
	"fmt"

	"aether-base-be/internal/config"
	"aether-base-be/internal/constant"
	"aether-base-be/internal/controller"
	"aether-base-be/internal/handler"
	"aether-base-be/internal/pkg/logger"
	"aether-base-be/internal/pkg/serverutils"
	"aether-base-be/internal/repository/memory"
	"aether-base-be/internal/service"
	"aether-base-be/internal/websocket"
	"aether-base-be/pkg/ai/router"
	"aether-base-be/pkg/document"
	"aether-base-be/pkg/events"
	"aether-base-be/pkg/llm/factory"
	pktNats "aether-base-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

const snapshotTopic = "session.snapshots"

type Container struct {
	// Controllers
	SessionController controller.ISessionController
	ChatbotController controller.IChatbotController
	LibraryController controller.ILibraryController
	AuthController    controller.IAuthController
	OAuthController   controller.IOAuthController

	// Background Services (Exposed for main.go to run)
	ConsumerService     service.IConsumerService
	NotificationService *service.NotificationService
	ChatbotService      service.IChatbotService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	Tokens *serverutils.SessionTokens
	Logger logger.ILogger

	closers []func()
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	tokens := serverutils.NewSessionTokens(cfg.App.JWTSecret, cfg.App.SessionTTL)
	sessionRepo := memory.NewSessionRepository(cfg.App.SessionTTL)

	c := &Container{Tokens: tokens, Logger: sysLogger}

	// 2. Snapshot Bus. Blocking publish keeps frames of one session in order.
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{BlockPublishUntilSubscriberAck: true},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 3. Model Gateway
	gateway, err := factory.NewGateway(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize model gateway: %w", err)
	}
	sysLogger.Info("Bootstrap", "Model gateway ready", map[string]interface{}{"provider": cfg.Ai.Provider, "model": cfg.Ai.ChatModel})

	// 4. Infrastructure: NATS and Redis are optional.
	var eventPublisher events.Publisher = events.NoopPublisher{}
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}

		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
			natsSub = nil
		} else {
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to Redis, hub runs single-instance", map[string]interface{}{"error": err.Error()})
			rdb.Close()
			rdb = nil
		} else {
			c.closers = append(c.closers, func() { rdb.Close() })
		}
	}

	// 5. WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)

	// 6. Services
	publisherService := service.NewPublisherService(snapshotTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, snapshotTopic, c.WebSocketHub, sysLogger)

	chatbotService := service.NewChatbotService(
		sessionRepo,
		gateway,
		router.NewRouter(nil, constant.DefaultDocumentTopic),
		document.NewCompiler(document.WithAuthor(constant.GeneratedAuthor)),
		publisherService,
		eventPublisher,
		tokens,
		sysLogger,
		cfg.Workflow,
	)
	c.ChatbotService = chatbotService
	c.closers = append(c.closers, chatbotService.Close)

	authService, err := service.NewAuthService(sessionRepo, publisherService, eventPublisher, cfg.Auth, sysLogger)
	if err != nil {
		return nil, err
	}
	oauthService := service.NewOAuthService(cfg.Auth, cfg.App.JWTSecret, authService, sysLogger)

	c.NotificationService = service.NewNotificationService(natsSub, c.WebSocketHub, wsLogger)

	// 7. Controllers
	c.SessionController = controller.NewSessionController(chatbotService)
	c.ChatbotController = controller.NewChatbotController(chatbotService)
	c.LibraryController = controller.NewLibraryController(chatbotService)
	c.AuthController = controller.NewAuthController(authService)
	c.OAuthController = controller.NewOAuthController(oauthService, cfg.App.ClientURL, sysLogger)
	c.NotificationHandler = handler.NewNotificationHandler(chatbotService, tokens, c.WebSocketHub, wsLogger)

	return c, nil
}

// Close releases infrastructure in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.Logger.Sync()
}
