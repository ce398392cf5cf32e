package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	myMongo "github.com/learnora/learnora-server/internal/adapters/db/mongo"
	myRedis "github.com/learnora/learnora-server/internal/adapters/db/redis"
	"github.com/learnora/learnora-server/internal/adapters/media/cloudinary"
	myHTTP "github.com/learnora/learnora-server/internal/adapters/transport/http"
	httpmw "github.com/learnora/learnora-server/internal/adapters/transport/http/middleware"
	appsvc "github.com/learnora/learnora-server/internal/app/auth/service"
	apptoken "github.com/learnora/learnora-server/internal/app/auth/token"
	"github.com/learnora/learnora-server/internal/app/notification"
	"github.com/learnora/learnora-server/internal/infra/config"
	lg "github.com/learnora/learnora-server/internal/infra/log"
	"github.com/learnora/learnora-server/internal/infra/mail"
	"github.com/learnora/learnora-server/internal/infra/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zapLog := lg.Must(cfg.Env, os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoClient, err := myMongo.Connect(rootCtx, cfg.MongoURL)
	if err != nil {
		zapLog.Fatal("failed to connect to mongo", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.MongoDatabase)

	userRepo := myMongo.NewMongoUserRepo(db)
	if err := userRepo.EnsureIndexes(rootCtx); err != nil {
		zapLog.Fatal("failed to create indexes", zap.Error(err))
	}
	notificationRepo := myMongo.NewMongoNotificationRepo(db)

	redisCli := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisCli.Close()
	sessionRepo := myRedis.NewRedisSessionRepo(redisCli, cfg.RefreshTokenTTL)

	issuer, err := apptoken.NewIssuer(cfg)
	if err != nil {
		zapLog.Fatal("failed to init token issuer", zap.Error(err))
	}

	media, err := cloudinary.New(cfg.CloudinaryURL)
	if err != nil {
		zapLog.Fatal("failed to init media store", zap.Error(err))
	}

	validate := validator.New()
	mailer := mail.NewSMTPMailer(cfg)
	svc := appsvc.New(userRepo, sessionRepo, issuer, mailer, media, cfg, validate)

	if !cfg.Local() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.RequestLogger(zapLog))
	router.Use(httpmw.NewRateLimitPerIP(50, 100, 10_000, time.Hour))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	handler := myHTTP.NewHandler(svc, issuer, sessionRepo, cfg, zapLog)
	handler.Routes(router)

	purger := notification.NewPurger(notificationRepo, cfg.PurgeSchedule, zapLog)
	if err := purger.Start(); err != nil {
		zapLog.Fatal("failed to start purge job", zap.Error(err))
	}

	srv := &http.Server{Addr: cfg.HTTPAddress, Handler: router}
	g, ctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		return server.Run(ctx, srv, zapLog)
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		zapLog.Info("shutdown signal received")
	case <-ctx.Done():
	}
	cancel()

	purger.Stop()
	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
