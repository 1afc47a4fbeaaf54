package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Uploads      UploadsConfig
	Payments     PaymentsConfig
	FeatureFlags FeatureFlagsConfig
}

// Load reads the full configuration from the environment. The database DSN
// may be given directly or assembled from the discrete legacy variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"EVENTMANAGER_APP_ENV" required:"true"`
	Port         string `envconfig:"EVENTMANAGER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"EVENTMANAGER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"EVENTMANAGER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool  { return strings.EqualFold(a.Env, AppEnvDev) }
func (a AppConfig) IsProd() bool { return strings.EqualFold(a.Env, AppEnvProd) }

type DBConfig struct {
	DSN string `envconfig:"EVENTMANAGER_DB_DSN"`

	LegacyHost     string `envconfig:"EVENTMANAGER_DB_HOST"`
	LegacyPort     int    `envconfig:"EVENTMANAGER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EVENTMANAGER_DB_USER"`
	LegacyPassword string `envconfig:"EVENTMANAGER_DB_PASSWORD"`
	LegacyName     string `envconfig:"EVENTMANAGER_DB_NAME"`
	LegacySSLMode  string `envconfig:"EVENTMANAGER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EVENTMANAGER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EVENTMANAGER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EVENTMANAGER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EVENTMANAGER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"EVENTMANAGER_REDIS_URL"`
	Address      string        `envconfig:"EVENTMANAGER_REDIS_ADDR"`
	Password     string        `envconfig:"EVENTMANAGER_REDIS_PASSWORD"`
	DB           int           `envconfig:"EVENTMANAGER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EVENTMANAGER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EVENTMANAGER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EVENTMANAGER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EVENTMANAGER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EVENTMANAGER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"EVENTMANAGER_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"EVENTMANAGER_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"EVENTMANAGER_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"EVENTMANAGER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"EVENTMANAGER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"EVENTMANAGER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"EVENTMANAGER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"EVENTMANAGER_ARGON_KEY_LEN" default:"32"`
}

type UploadsConfig struct {
	ProofDir    string `envconfig:"EVENTMANAGER_UPLOADS_PROOF_DIR" default:"uploads/proofs"`
	MaxUploadMB int    `envconfig:"EVENTMANAGER_MAX_UPLOAD_MB" default:"10"`
}

type PaymentsConfig struct {
	GatewayBaseURL string `envconfig:"EVENTMANAGER_PAYMENT_GATEWAY_BASE_URL" default:"https://gateway.example.com/pay"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"EVENTMANAGER_AUTO_MIGRATE" default:"false"`
}

// ensureDSN builds a postgres URL from the legacy host/user/name variables
// when no DSN was set directly.
func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	var missing []string
	for env, val := range map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	} {
		if val == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.User(db.LegacyUser),
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}
	if db.LegacyPassword != "" {
		u.User = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}
	if db.LegacySSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{db.LegacySSLMode}}.Encode()
	}

	db.DSN = u.String()
	return nil
}
