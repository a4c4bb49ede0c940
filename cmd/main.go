package main

import (
	"context"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Gopher0727/StreakChat/config"
	"github.com/Gopher0727/StreakChat/internal/api"
	"github.com/Gopher0727/StreakChat/internal/consumer"
	"github.com/Gopher0727/StreakChat/internal/handler"
	"github.com/Gopher0727/StreakChat/internal/pkg/kafka"
	redispkg "github.com/Gopher0727/StreakChat/internal/pkg/redis"
	"github.com/Gopher0727/StreakChat/internal/repository"
	"github.com/Gopher0727/StreakChat/internal/service"
	"github.com/Gopher0727/StreakChat/internal/storage"
	"github.com/Gopher0727/StreakChat/middleware/jwt"
	logger "github.com/Gopher0727/StreakChat/middleware/log"
	"github.com/Gopher0727/StreakChat/utils/snowflake"
	"github.com/Gopher0727/StreakChat/utils/workerpool"
)

func main() {
	cfg, err := config.LoadConfig("./config.toml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Close()

	// PostgreSQL
	dsn := storage.BuildDSN(cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName)
	db, err := storage.InitPostgres(dsn, cfg.Postgres.MaxIdleConns, cfg.Postgres.MaxOpenConns)
	if err != nil {
		logr.Fatal("failed to init postgres", zap.Error(err))
	}

	// Redis
	redisClient, err := redispkg.NewClient(&cfg.Redis)
	if err != nil {
		logr.Fatal("failed to init redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Snowflake generator for message IDs
	snowflakeGen, err := snowflake.NewGenerator(cfg.Snowflake.DatacenterID, cfg.Snowflake.WorkerID)
	if err != nil {
		logr.Fatal("failed to init snowflake generator", zap.Error(err))
	}

	tokenManager := jwt.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpireHours, cfg.JWT.RefreshHours)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	streakRepo := repository.NewStreakRepository(db)
	contribRepo := repository.NewContributionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	wallRepo := repository.NewWallRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Kafka producer, optional: without it message events are not fanned out
	// but sends still work
	var publisher service.IEventPublisher
	kafkaProducer, err := kafka.NewProducer(&cfg.Kafka)
	if err != nil {
		logr.Warn("kafka unavailable, message events disabled", zap.Error(err))
	} else {
		defer kafkaProducer.Close()
		publisher = service.NewKafkaEventPublisher(kafkaProducer, &cfg.Kafka)
	}

	// Services
	authService := service.NewAuthService(userRepo, tokenManager)
	userService := service.NewUserService(userRepo)
	streakService := service.NewStreakService(streakRepo, contribRepo, groupRepo)
	groupService := service.NewGroupService(groupRepo, userRepo, streakRepo)
	messageService := service.NewMessageService(messageRepo, wallRepo, userRepo, groupService, streakService, publisher, snowflakeGen, redisClient, logr)
	wallService := service.NewWallService(wallRepo, groupRepo)
	notificationService := service.NewNotificationService(notificationRepo, groupRepo)

	// Notification consumer
	if kafkaProducer != nil {
		pushPool := workerpool.New(4, 256, logr.Logger)
		pushPool.Start()
		defer pushPool.Stop()

		notificationConsumer := consumer.NewNotificationConsumer(notificationRepo, groupRepo, pushPool, logr)
		kafkaConsumer, err := kafka.NewConsumer(&cfg.Kafka, []string{cfg.Kafka.Topics.MessageEvents}, notificationConsumer.Handle, logr.Logger)
		if err != nil {
			logr.Warn("failed to init kafka consumer, notifications disabled", zap.Error(err))
		} else {
			if err := kafkaConsumer.Start(context.Background()); err != nil {
				logr.Warn("failed to start kafka consumer", zap.Error(err))
			} else {
				defer kafkaConsumer.Stop()
			}
		}
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	groupHandler := handler.NewGroupHandler(groupService)
	messageHandler := handler.NewMessageHandler(messageService, groupService)
	streakHandler := handler.NewStreakHandler(streakService, groupService)
	wallHandler := handler.NewWallHandler(wallService, groupService)
	notificationHandler := handler.NewNotificationHandler(notificationService, groupService)

	mw := api.NewMiddlewareManager(tokenManager, redisClient, logr, &cfg.RateLimit)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()

	api.RegisterRoutes(r, mw,
		authHandler,
		userHandler,
		groupHandler,
		messageHandler,
		streakHandler,
		wallHandler,
		notificationHandler,
	)

	logr.Info("server starting", zap.Int("port", cfg.Server.Port))
	if err := r.Run(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
		logr.Fatal("server exited", zap.Error(err))
	}
}
