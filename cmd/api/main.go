package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"labbook/internal/config"
	"labbook/internal/database"
	"labbook/internal/domain/auth"
	"labbook/internal/domain/booking"
	"labbook/internal/events"
	"labbook/internal/logger"
	"labbook/internal/pkg/jwt"
	"labbook/internal/realtime"
	"labbook/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL, zl)
	if err != nil {
		zl.Fatal("db connect failed", zap.Error(err))
	}
	if err := auth.AutoMigrate(db); err != nil {
		zl.Fatal("auth migration failed", zap.Error(err))
	}
	if err := booking.AutoMigrate(db); err != nil {
		zl.Fatal("booking migration failed", zap.Error(err))
	}

	codes := auth.NewGormCodeStore(db)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			zl.Fatal("redis ping failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer rdb.Close()
		codes = auth.NewRedisCodeStore(rdb)
		zl.Info("login codes stored in redis", zap.String("addr", cfg.RedisAddr))
	}

	var mailer auth.Mailer = auth.NewConsoleMailer(zl)
	if !cfg.DevMailer {
		mailer = auth.NewSMTPMailer(auth.SMTPConfig{
			Addr:     cfg.SMTPAddr,
			From:     cfg.SMTPFrom,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		})
	}

	tokens := jwt.New(cfg.JWTSecret, cfg.JWTTTL)
	authService := auth.NewService(auth.NewUserRepository(db), codes, mailer, tokens, auth.Options{
		Pepper:         cfg.LoginCodePepper,
		CodeTTL:        cfg.LoginCodeTTL,
		ResendCooldown: cfg.LoginResendCooldown,
		MaxAttempts:    cfg.LoginMaxAttempts,
	}, zl)

	hub := realtime.NewHub(zl)
	publishers := events.Multi{hub}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			zl.Fatal("amqp connect failed", zap.Error(err))
		}
		defer amqpPub.Close()
		publishers = append(publishers, amqpPub)
		zl.Info("booking events published to amqp", zap.String("exchange", cfg.AMQPExchange))
	}

	bookingService := booking.NewService(booking.NewBookingRepository(db), authService, publishers, zl)

	router := server.NewRouter(server.Deps{
		Tokens:         tokens,
		Auth:           auth.NewHandler(authService, zl),
		Bookings:       booking.NewHandler(bookingService, zl),
		Realtime:       realtime.NewHandler(hub, tokens, cfg.AllowedOrigins(), zl),
		Log:            zl,
		AllowedOrigins: cfg.AllowedOrigins(),
		AuthRatePerMin: cfg.AuthRatePerMin,
		AuthRateBurst:  cfg.AuthRateBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("forced shutdown", zap.Error(err))
	}
}
