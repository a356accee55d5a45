package main

import (
	"PoseFeedback/internal/config"
	"PoseFeedback/pkg/log"
	"PoseFeedback/pkg/redis"
	websocketPkg "PoseFeedback/pkg/websocket"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Debugf("No .env file loaded: %v", err)
	}

	appConfig, err := config.LoadAppConfig()
	if err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	log.SetDebug(appConfig.Reload)

	fiberApp := config.NewFiber(logger, appConfig.Reload)
	validator := config.NewValidator()
	poseModel := websocketPkg.NewPoseModelClient(websocketPkg.DefaultConfig(appConfig.PoseModelURL))

	options := []config.ServerOption{
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithAppConfig(appConfig),
		config.WithValidator(validator),
		config.WithPoseModel(poseModel),
		config.WithMiddleware(),
		config.WithUtils(),
	}
	if appConfig.CacheEnabled() {
		options = append(options, config.WithResultCache(redis.New(redis.Config{
			Address:  appConfig.RedisAddress,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
			TTL:      appConfig.ResultCacheTTL,
		})))
	}

	server, err := config.NewServer(options...)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")
	if err := server.Shutdown(); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
