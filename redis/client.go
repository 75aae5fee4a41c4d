package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-redis/redis/v8"
	"github.com/kelseyhightower/envconfig"

	"text2phenotype.com/standoff/utils/maps"
)

type DB int
type ReleaseLock func() error

// ErrNotFound is returned for keys that do not exist.
var ErrNotFound = errors.New("redis key not found")

type Client struct {
	client         redis.UniversalClient
	lockExpiration time.Duration
	lockRetries    int
}

type Config struct {
	LockExpirationSeconds   int     `envconfig:"MDL_COMN_REDIS_LOCK_EXPIRATION" default:"3"`
	LockRetries             int     `envconfig:"MDL_COMN_REDIS_LOCK_RETRIES" default:"20"`
	Host                    string  `envconfig:"MDL_COMN_REDIS_HOST" required:"true"`
	Port                    string  `envconfig:"MDL_COMN_REDIS_PORT" required:"true"`
	HASentinelPort          string  `envconfig:"MDL_COMN_REDIS_HA_SENTINEL_PORT" default:"26379"`
	HASentinelMasterName    string  `envconfig:"MDL_COMN_REDIS_HA_MASTER_NAME" default:"mymaster"`
	Password                string  `envconfig:"MDL_COMN_REDIS_AUTH_PASSWORD" default:"0"`
	AuthRequired            bool    `envconfig:"MDL_COMN_REDIS_AUTH_REQUIRED" default:"false"`
	HAMode                  bool    `envconfig:"MDL_COMN_REDIS_HA_MODE" default:"false"`
	HASentinelSocketTimeout float32 `envconfig:"MDL_COMN_REDIS_SOCKET_TIMEOUT" default:"0.5"`
}

// NewClient connects to one redis database, through sentinel when
// MDL_COMN_REDIS_HA_MODE is set.
func NewClient(db DB) (Client, error) {
	cfg, err := readEnvironment()
	if err != nil {
		return Client{}, err
	}
	return Client{
		client:         redis.NewUniversalClient(universalOptions(cfg, db)),
		lockExpiration: time.Duration(cfg.LockExpirationSeconds) * time.Second,
		lockRetries:    cfg.LockRetries,
	}, nil
}

func universalOptions(cfg *Config, db DB) *redis.UniversalOptions {
	options := &redis.UniversalOptions{
		Addrs:      []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)},
		DB:         int(db),
		MaxRetries: 6,
	}
	if cfg.HAMode {
		timeout := time.Duration(float64(cfg.HASentinelSocketTimeout) * float64(time.Second))
		options.Addrs = []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.HASentinelPort)}
		options.MasterName = cfg.HASentinelMasterName
		options.ReadTimeout = timeout
		options.WriteTimeout = timeout
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return options
}

func (client *Client) GetPartialDocument(ctx context.Context, redisKey string, doc maps.PartialDocument) error {
	b, err := client.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %s", ErrNotFound, redisKey)
	}
	if err != nil {
		return err
	}
	if err := maps.Decode(b, doc); err != nil {
		return fmt.Errorf("decode %s: %w", redisKey, err)
	}
	return nil
}

// UpdatePartialDocument reads, updates and saves a document under its lock.
func (client *Client) UpdatePartialDocument(
	ctx context.Context,
	redisKey string,
	doc maps.PartialDocument,
	updateFunc interface{}) (err error) {
	releaseLock, err := client.Lock(ctx, redisKey)
	if err != nil {
		return err
	}
	defer func() {
		releaseErr := releaseLock()
		if err == nil {
			err = releaseErr
		}
	}()
	if err = client.GetPartialDocument(ctx, redisKey, doc); err != nil {
		return err
	}
	if err = maps.ApplyUpdates(doc, updateFunc); err != nil {
		return err
	}
	return client.SaveDoc(ctx, redisKey, doc)
}

func (client *Client) Lock(ctx context.Context, redisKey string) (ReleaseLock, error) {
	locker := redislock.New(client.client)
	strategy := redislock.LimitRetry(redislock.LinearBackoff(time.Second), client.lockRetries)
	lock, err := locker.Obtain(ctx, fmt.Sprintf("lock:%s", redisKey), client.lockExpiration, &redislock.Options{RetryStrategy: strategy})
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", redisKey, err)
	}
	return func() error {
		return lock.Release(ctx)
	}, nil
}

func (client *Client) SaveDoc(ctx context.Context, redisKey string, document maps.PartialDocument) error {
	b, err := json.Marshal(document)
	if err != nil {
		return err
	}
	return client.client.Set(ctx, redisKey, b, 0).Err()
}

func (client *Client) Close() error {
	return client.client.Close()
}

func readEnvironment() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
