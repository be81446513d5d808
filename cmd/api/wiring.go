package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/medbook-api/internal/booking"
	"github.com/harentsoaR/medbook-api/internal/config"
	"github.com/harentsoaR/medbook-api/internal/services"
	"github.com/harentsoaR/medbook-api/internal/store"
	"github.com/harentsoaR/medbook-api/pkg/logging"
)

func openStore(cfg *config.Config, logger *logging.Logger) (store.Store, func(), error) {
	if cfg.UseMemoryStore {
		logger.Warn("using in-memory store, data is lost on restart")
		return store.NewMemory(), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	st := store.NewMongo(client.Database(cfg.MongoDatabase))
	if err := st.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}
	logger.Info("connected to mongodb", "database", cfg.MongoDatabase)

	return st, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}, nil
}

// newLocker prefers a shared Redis lock and falls back to an in-process one.
func newLocker(cfg *config.Config, logger *logging.Logger) (booking.Locker, func()) {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, slot locks are process local")
		return booking.NewLocalLocker(cfg.SlotLockWait), func() {}
	}

	opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, slot locks are process local", "error", err)
		_ = client.Close()
		return booking.NewLocalLocker(cfg.SlotLockWait), func() {}
	}
	logger.Info("slot locks use redis", "addr", cfg.RedisAddr)
	locker := booking.NewRedisLocker(client, cfg.SlotLockTTL, cfg.SlotLockWait).WithLogger(logger.With("component", "slotlock"))
	return locker, func() { _ = client.Close() }
}

func loadAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	if cfg.ProfilePictureBucket == "" && cfg.EmailProvider != "ses" {
		return aws.Config{}, fmt.Errorf("no aws service configured")
	}
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
}

func newEmailSender(cfg *config.Config, awsCfg aws.Config, awsOK bool, logger *logging.Logger) services.EmailSender {
	from := services.Sender{Email: cfg.EmailFrom, Name: cfg.EmailFromName}
	log := logger.With("component", "email")
	switch cfg.EmailProvider {
	case "sendgrid":
		if cfg.SendGridAPIKey != "" {
			return services.NewSendGridSender(cfg.SendGridAPIKey, from, log)
		}
		logger.Warn("EMAIL_PROVIDER=sendgrid without SENDGRID_API_KEY, emails are only logged")
	case "ses":
		if awsOK {
			client := sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
				if cfg.AWSEndpointOverride != "" {
					o.BaseEndpoint = aws.String(cfg.AWSEndpointOverride)
				}
			})
			return services.NewSESSender(client, from, log)
		}
		logger.Warn("EMAIL_PROVIDER=ses without aws config, emails are only logged")
	}
	return services.NewLogEmailSender(log)
}

func newPictureStore(cfg *config.Config, awsCfg aws.Config, awsOK bool, logger *logging.Logger) *services.PictureStore {
	log := logger.With("component", "pictures")
	if cfg.ProfilePictureBucket == "" || !awsOK {
		return services.NewPictureStore(nil, "", cfg.AWSRegion, "", log)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.AWSEndpointOverride != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointOverride)
			o.UsePathStyle = true
		}
	})
	return services.NewPictureStore(client, cfg.ProfilePictureBucket, cfg.AWSRegion, cfg.ProfilePictureBaseURL, log)
}

func newIdentity(ctx context.Context, cfg *config.Config, logger *logging.Logger) services.IdentityVerifier {
	if cfg.FirebaseProjectID == "" {
		logger.Info("FIREBASE_PROJECT_ID not set, firebase sign-in disabled")
		return nil
	}
	id, err := services.NewFirebaseIdentity(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
	if err != nil {
		logger.Warn("firebase sign-in disabled", "error", err)
		return nil
	}
	return id
}
