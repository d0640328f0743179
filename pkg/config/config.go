package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Cart          CartConfig
	Idempotency   IdempotencyConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"ECOMMERCE_APP_ENV" required:"true"`
	Port         string   `envconfig:"ECOMMERCE_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"ECOMMERCE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"ECOMMERCE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"ECOMMERCE_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ECOMMERCE_DB_DSN"`
	Driver string `envconfig:"ECOMMERCE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ECOMMERCE_DB_HOST"`
	LegacyPort     int    `envconfig:"ECOMMERCE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ECOMMERCE_DB_USER"`
	LegacyPassword string `envconfig:"ECOMMERCE_DB_PASSWORD"`
	LegacyName     string `envconfig:"ECOMMERCE_DB_NAME"`
	LegacySSLMode  string `envconfig:"ECOMMERCE_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"ECOMMERCE_SQLITE_PATH" default:"ecommerce.db"`

	MaxOpenConns    int           `envconfig:"ECOMMERCE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ECOMMERCE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ECOMMERCE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ECOMMERCE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ECOMMERCE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ECOMMERCE_REDIS_ADDR"`
	Password     string        `envconfig:"ECOMMERCE_REDIS_PASSWORD"`
	DB           int           `envconfig:"ECOMMERCE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ECOMMERCE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ECOMMERCE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ECOMMERCE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ECOMMERCE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ECOMMERCE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ECOMMERCE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ECOMMERCE_JWT_ISSUER" default:"ecommerce-api"`
	ExpirationMinutes      int    `envconfig:"ECOMMERCE_JWT_EXPIRATION_MINUTES" default:"120"`
	RefreshTokenTTLMinutes int    `envconfig:"ECOMMERCE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ECOMMERCE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ECOMMERCE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ECOMMERCE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ECOMMERCE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ECOMMERCE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ECOMMERCE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"ECOMMERCE_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"ECOMMERCE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"ECOMMERCE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"ECOMMERCE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"ECOMMERCE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// CartConfig tunes the cart consistency rules.
type CartConfig struct {
	ConflictRetries int `envconfig:"ECOMMERCE_CART_CONFLICT_RETRIES" default:"3"`
	MaxHeadersTake  int `envconfig:"ECOMMERCE_CART_MAX_HEADERS_TAKE" default:"300"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"ECOMMERCE_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ECOMMERCE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ECOMMERCE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
