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
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Trips         TripsConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CONVOY_APP_ENV" required:"true"`
	Port         string `envconfig:"CONVOY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CONVOY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CONVOY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CONVOY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CONVOY_DB_DSN"`
	Driver string `envconfig:"CONVOY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CONVOY_DB_HOST"`
	LegacyPort     int    `envconfig:"CONVOY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CONVOY_DB_USER"`
	LegacyPassword string `envconfig:"CONVOY_DB_PASSWORD"`
	LegacyName     string `envconfig:"CONVOY_DB_NAME"`
	LegacySSLMode  string `envconfig:"CONVOY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CONVOY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CONVOY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CONVOY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CONVOY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CONVOY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CONVOY_REDIS_ADDR"`
	Password     string        `envconfig:"CONVOY_REDIS_PASSWORD"`
	DB           int           `envconfig:"CONVOY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CONVOY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CONVOY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CONVOY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CONVOY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CONVOY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"CONVOY_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"CONVOY_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"CONVOY_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"CONVOY_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CONVOY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CONVOY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CONVOY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CONVOY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CONVOY_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CONVOY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CONVOY_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CONVOY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CONVOY_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CONVOY_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CONVOY_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CONVOY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CONVOY_AUTO_MIGRATE" default:"false"`
}

type TripsConfig struct {
	MinLeadTime time.Duration `envconfig:"CONVOY_TRIPS_MIN_LEAD_TIME" default:"72h"`
	LeaveCutoff time.Duration `envconfig:"CONVOY_TRIPS_LEAVE_CUTOFF" default:"24h"`
	ReminderHorizon time.Duration `envconfig:"CONVOY_TRIPS_REMINDER_HORIZON" default:"24h"`
}

type CronConfig struct {
	Interval             time.Duration `envconfig:"CONVOY_CRON_INTERVAL" default:"5m"`
	LockTTL              time.Duration `envconfig:"CONVOY_CRON_LOCK_TTL" default:"4m"`
	NotificationMaxAge   time.Duration `envconfig:"CONVOY_CRON_NOTIFICATION_MAX_AGE" default:"2160h"`
	NotificationBatchMax int           `envconfig:"CONVOY_CRON_NOTIFICATION_BATCH_MAX" default:"500"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
