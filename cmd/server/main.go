package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/claro-app/claro-server/internal/access"
	"github.com/claro-app/claro-server/internal/api"
	"github.com/claro-app/claro-server/internal/database"
	"github.com/claro-app/claro-server/internal/realtime"
	pkgauth "github.com/claro-app/claro-server/pkg/auth"
	"github.com/claro-app/claro-server/pkg/config"
	"github.com/claro-app/claro-server/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Environment)
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	defer log.Sync()

	db, err := database.NewDatabase(cfg.Database.DataDir)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}

	if cfg.Environment == config.EnvDevelopment {
		if err := database.SeedFixtures(db); err != nil {
			log.Fatal("failed to seed fixtures", zap.Error(err))
		}
		log.Info("development fixtures loaded")
	}

	jwtManager := pkgauth.NewJWTManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	guard := access.NewGuard(db)

	hub := realtime.NewHub(guard, jwtManager, cfg.CORS.AllowedOrigins, log)
	go hub.Run()

	var broadcaster realtime.Broadcaster = hub
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		bridge := realtime.NewRedisBridge(rdb, hub, log)
		go bridge.Run(context.Background())
		broadcaster = bridge
		log.Info("redis event bridge enabled", zap.String("addr", cfg.Redis.Addr))
	}

	router := api.SetupRouter(cfg, db, guard, jwtManager, hub, broadcaster, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("server starting",
		zap.String("addr", addr),
		zap.String("environment", cfg.Environment))
	if err := router.Run(addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
