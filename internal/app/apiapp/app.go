package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/GarryCodespace/xFood-Web/internal/config"
	"github.com/GarryCodespace/xFood-Web/internal/infra/httpclient"
	s3infra "github.com/GarryCodespace/xFood-Web/internal/infra/s3"
	pgrepo "github.com/GarryCodespace/xFood-Web/internal/repo/postgres"
	redrepo "github.com/GarryCodespace/xFood-Web/internal/repo/redis"
	authsvc "github.com/GarryCodespace/xFood-Web/internal/services/auth"
	billingsvc "github.com/GarryCodespace/xFood-Web/internal/services/billing"
	catalogsvc "github.com/GarryCodespace/xFood-Web/internal/services/catalog"
	circlessvc "github.com/GarryCodespace/xFood-Web/internal/services/circles"
	mediasvc "github.com/GarryCodespace/xFood-Web/internal/services/media"
	messagessvc "github.com/GarryCodespace/xFood-Web/internal/services/messages"
	ratesvc "github.com/GarryCodespace/xFood-Web/internal/services/rate"
	socialsvc "github.com/GarryCodespace/xFood-Web/internal/services/social"
	userssvc "github.com/GarryCodespace/xFood-Web/internal/services/users"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient, err := redrepo.NewClient(ctx, redrepo.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)

	userRepo := pgrepo.NewUserRepo(pool)
	recipeRepo := pgrepo.NewRecipeRepo(pool)
	bakeRepo := pgrepo.NewBakeRepo(pool)
	reviewRepo := pgrepo.NewReviewRepo(pool)
	likeRepo := pgrepo.NewLikeRepo(pool)
	commentRepo := pgrepo.NewCommentRepo(pool)
	circleRepo := pgrepo.NewCircleRepo(pool)
	messageRepo := pgrepo.NewMessageRepo(pool)
	purchaseRepo := pgrepo.NewPurchaseRepo(pool)
	subscriptionRepo := pgrepo.NewSubscriptionRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, sessionRepo, userRepo, cfg.Auth.RefreshTTL)
	userService := userssvc.NewService(userRepo)

	rateLimiter := ratesvc.NewLimiter(rateRepo, cfg.Limits.WritesPerMinute, cfg.Limits.WritesPer10Sec)

	catalogService := catalogsvc.NewService(catalogsvc.Dependencies{
		Recipes: recipeRepo,
		Bakes:   bakeRepo,
		Access:  purchaseRepo,
		Circles: circleRepo,
	})
	socialService := socialsvc.NewService(socialsvc.Dependencies{
		Reviews:  reviewRepo,
		Likes:    likeRepo,
		Comments: commentRepo,
		Limiter:  rateLimiter,
	})
	circleService := circlessvc.NewService(circleRepo)
	messageService := messagessvc.NewService(messageRepo)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	mediaStorage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	mediaService := mediasvc.NewService(mediaStorage, cfg.Upload.MaxFileSizeBytes, cfg.Upload.SignedURLTTL)

	stripeProvider, err := billingsvc.NewStripeProvider(
		cfg.Stripe.SecretKey,
		cfg.Stripe.WebhookSecret,
		httpclient.New(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("init stripe provider: %w", err)
	}
	billingService := billingsvc.NewService(billingsvc.Dependencies{
		Provider:      stripeProvider,
		Users:         userRepo,
		Recipes:       recipeRepo,
		Bakes:         bakeRepo,
		Purchases:     purchaseRepo,
		Subscriptions: subscriptionRepo,
		Logger:        log,
	}, billingsvc.Config{
		CommissionBPS:       cfg.Stripe.CommissionBPS,
		Currency:            "usd",
		SubscriptionPriceID: cfg.Stripe.SubscriptionPriceID,
		FrontendURL:         cfg.Stripe.FrontendURL,
	})

	RegisterRoutes(r, Dependencies{
		AuthService:    authService,
		UserService:    userService,
		CatalogService: catalogService,
		SocialService:  socialService,
		CircleService:  circleService,
		MessageService: messageService,
		MediaService:   mediaService,
		BillingService: billingService,
		RateLimiter:    rateLimiter,
		Logger:         log,
		Config:         cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
