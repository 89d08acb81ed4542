package main

import (
	"log"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"

	"github.com/framefarm/framefarm/internal/config"
	"github.com/framefarm/framefarm/internal/server"
	"github.com/framefarm/framefarm/pkg/db/aws"
	clientRedis "github.com/framefarm/framefarm/pkg/db/redis"
	"github.com/framefarm/framefarm/pkg/logger"
)

func main() {
	log.Println("Starting server")
	configFile := "config.yml"
	cfgFile, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}
	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

	// Redis and S3 are optional collaborators; the coordinator core runs
	// on the file store alone.
	var redisClient *redis.Client
	if cfg.Redis.RedisAddr != "" {
		redisClient, err = clientRedis.NewRedisClient(cfg)
		if err != nil {
			appLogger.Warnf("could not connect to redis, progress cache disabled: %s", err)
			redisClient = nil
		} else {
			appLogger.Infof("redis connected")
			defer redisClient.Close()
		}
	}

	var s3Client *s3.Client
	if cfg.S3.ResultBucket != "" {
		s3Client, err = aws.NewAWSClient(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
		if err != nil {
			appLogger.Warnf("could not connect to s3, storing results locally: %s", err)
			s3Client = nil
		}
	}

	s := server.NewServer(cfg, redisClient, s3Client, appLogger)
	if err = s.Run(); err != nil {
		appLogger.Fatalf("could not start server: %s", err)
	}
}
