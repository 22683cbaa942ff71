package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/electroegy/electroegy-backend/config"
	"github.com/electroegy/electroegy-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init initializes the Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// BlacklistToken adds a token to the blacklist until its natural expiry
func BlacklistToken(ctx context.Context, token string, expiry time.Duration) error {
	logger.Debug("Adding token to blacklist", map[string]interface{}{
		"expiry": expiry.String(),
	})

	key := fmt.Sprintf("blacklist:%s", token)
	if err := client.Set(ctx, key, "revoked", expiry).Err(); err != nil {
		logger.Error("Failed to blacklist token", err, nil)
		return err
	}

	logger.Debug("Token successfully blacklisted", nil)
	return nil
}

// IsTokenBlacklisted checks if a token is in the blacklist
func IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	key := fmt.Sprintf("blacklist:%s", token)
	val, err := client.Get(ctx, key).Result()

	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err, nil)
		return false, err
	}

	return val == "revoked", nil
}

// StoreTwoFactorCode stores a 2FA code for an email with a TTL
func StoreTwoFactorCode(ctx context.Context, email, code string, ttl time.Duration) error {
	key := fmt.Sprintf("2fa:%s", email)
	if err := client.Set(ctx, key, code, ttl).Err(); err != nil {
		logger.Error("Failed to store 2FA code", err, map[string]interface{}{
			"email": email,
		})
		return err
	}

	logger.Debug("2FA code stored", map[string]interface{}{
		"email": email,
		"ttl":   ttl.String(),
	})
	return nil
}

// ConsumeTwoFactorCode verifies the 2FA code for an email and deletes it on
// success so a code can never be replayed
func ConsumeTwoFactorCode(ctx context.Context, email, code string) (bool, error) {
	key := fmt.Sprintf("2fa:%s", email)
	val, err := client.Get(ctx, key).Result()

	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to read 2FA code", err, map[string]interface{}{
			"email": email,
		})
		return false, err
	}

	if val != code {
		return false, nil
	}

	if err := client.Del(ctx, key).Err(); err != nil {
		logger.Error("Failed to delete consumed 2FA code", err, map[string]interface{}{
			"email": email,
		})
		return false, err
	}

	return true, nil
}

// ClearTwoFactorCode removes any pending 2FA code for an email
func ClearTwoFactorCode(ctx context.Context, email string) error {
	key := fmt.Sprintf("2fa:%s", email)
	return client.Del(ctx, key).Err()
}
