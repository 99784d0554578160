package global

import (
	"context"
	"os"
	"strings"
	"time"

	"ChatWave/service/mgo"
	redisrv "ChatWave/service/storage/redis"
	"ChatWave/tools/errs"
	"ChatWave/tools/ids"

	"github.com/mitchellh/mapstructure"
)

type ServerConfig struct {
	Addr      string `json:"addr"`
	GatewayID string `json:"gateway_id"`
}

type MongoConfig struct {
	Uri         string `json:"uri"`
	Database    string `json:"database"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	AuthSource  string `json:"auth_source"`
	MaxPoolSize int    `json:"max_pool_size"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type JwtConfig struct {
	Secret string `json:"secret"`
	Alg    string `json:"alg"`
	TTLMin int    `json:"ttl_min"`
}

type GatewayConfig struct {
	TypingExpiryMS  int `json:"typing_expiry_ms"`
	SendQueueSize   int `json:"send_queue_size"`
	PresenceTTLSec  int `json:"presence_ttl_sec"`
	SnowflakeNodeID int `json:"snowflake_node_id"`
}

type AppConfig struct {
	Server  ServerConfig  `json:"server"`
	Mongo   MongoConfig   `json:"mongo"`
	Redis   RedisConfig   `json:"redis"`
	Jwt     JwtConfig     `json:"jwt"`
	Gateway GatewayConfig `json:"gateway"`
}

func defaults() map[string]any {
	return map[string]any{
		"server": map[string]any{
			"addr":       ":8080",
			"gateway_id": "gw-1",
		},
		"mongo": map[string]any{
			"uri":           "mongodb://localhost:27017",
			"database":      "chatwave",
			"max_pool_size": 20,
		},
		"redis": map[string]any{
			"addr": "127.0.0.1:6379",
			"db":   0,
		},
		"jwt": map[string]any{
			"secret":  "dev-secret-change-me",
			"alg":     "HS256",
			"ttl_min": 120,
		},
		"gateway": map[string]any{
			"typing_expiry_ms":  3000,
			"send_queue_size":   256,
			"presence_ttl_sec":  90,
			"snowflake_node_id": 100,
		},
	}
}

// env overrides, CHATWAVE_SECTION_KEY => section.key
var envKeys = map[string][2]string{
	"CHATWAVE_SERVER_ADDR":    {"server", "addr"},
	"CHATWAVE_GATEWAY_ID":     {"server", "gateway_id"},
	"CHATWAVE_MONGO_URI":      {"mongo", "uri"},
	"CHATWAVE_MONGO_DATABASE": {"mongo", "database"},
	"CHATWAVE_MONGO_USERNAME": {"mongo", "username"},
	"CHATWAVE_MONGO_PASSWORD": {"mongo", "password"},
	"CHATWAVE_REDIS_ADDR":     {"redis", "addr"},
	"CHATWAVE_REDIS_PASSWORD": {"redis", "password"},
	"CHATWAVE_JWT_SECRET":     {"jwt", "secret"},
}

// Load merges defaults with CHATWAVE_* env overrides and decodes the result.
func Load() (*AppConfig, error) {
	raw := defaults()
	for env, path := range envKeys {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			section, ok := raw[path[0]].(map[string]any)
			if !ok {
				continue
			}
			section[path[1]] = v
		}
	}

	var cfg AppConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errs.Wrap(err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, errs.WrapMsg(err, "decode app config")
	}
	return &cfg, nil
}

func (c *AppConfig) JwtSecret() []byte { return []byte(c.Jwt.Secret) }

func (c *AppConfig) TypingExpiry() time.Duration {
	return time.Duration(c.Gateway.TypingExpiryMS) * time.Millisecond
}

func (c *AppConfig) PresenceTTL() time.Duration {
	return time.Duration(c.Gateway.PresenceTTLSec) * time.Second
}

// ---- composition helpers ----

func ConfigIds(cfg *AppConfig) {
	ids.SetNodeID(int64(cfg.Gateway.SnowflakeNodeID))
}

func ConfigRedis(cfg *AppConfig) error {
	return redisrv.InitRedis(redisrv.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func ConfigMgo(ctx context.Context, cfg *AppConfig) error {
	mcfg := &mgo.Config{
		Uri:         cfg.Mongo.Uri,
		Database:    cfg.Mongo.Database,
		Username:    cfg.Mongo.Username,
		Password:    cfg.Mongo.Password,
		AuthSource:  cfg.Mongo.AuthSource,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	}
	if err := mgo.StartAsync(ctx, mcfg); err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return mgo.WaitReady(wctx)
}
