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
	FeatureFlags  FeatureFlagsConfig
	Stripe        StripeConfig
	Vouchers      VoucherConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DRIFTKINGS_APP_ENV" required:"true"`
	Port         string `envconfig:"DRIFTKINGS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DRIFTKINGS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DRIFTKINGS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DRIFTKINGS_DB_DSN"`
	Driver string `envconfig:"DRIFTKINGS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"DRIFTKINGS_DB_HOST"`
	Port     int    `envconfig:"DRIFTKINGS_DB_PORT" default:"5432"`
	User     string `envconfig:"DRIFTKINGS_DB_USER"`
	Password string `envconfig:"DRIFTKINGS_DB_PASSWORD"`
	Name     string `envconfig:"DRIFTKINGS_DB_NAME"`
	SSLMode  string `envconfig:"DRIFTKINGS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DRIFTKINGS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DRIFTKINGS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DRIFTKINGS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DRIFTKINGS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DRIFTKINGS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DRIFTKINGS_REDIS_ADDR"`
	Password     string        `envconfig:"DRIFTKINGS_REDIS_PASSWORD"`
	DB           int           `envconfig:"DRIFTKINGS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DRIFTKINGS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DRIFTKINGS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DRIFTKINGS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DRIFTKINGS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DRIFTKINGS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"DRIFTKINGS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"DRIFTKINGS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"DRIFTKINGS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"DRIFTKINGS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DRIFTKINGS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DRIFTKINGS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DRIFTKINGS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DRIFTKINGS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DRIFTKINGS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"DRIFTKINGS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"DRIFTKINGS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"DRIFTKINGS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"DRIFTKINGS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"DRIFTKINGS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"DRIFTKINGS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"DRIFTKINGS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"DRIFTKINGS_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey string `envconfig:"DRIFTKINGS_STRIPE_API_KEY"`
	Secret string `envconfig:"DRIFTKINGS_STRIPE_SECRET"`
	Env    string `envconfig:"DRIFTKINGS_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// VoucherConfig drives PDF voucher rendering and the QR verification link.
type VoucherConfig struct {
	TemplateDir string `envconfig:"DRIFTKINGS_VOUCHER_TEMPLATE_DIR" default:"assets/vouchers"`
	FontPath    string `envconfig:"DRIFTKINGS_VOUCHER_FONT_PATH" default:"assets/fonts/Montserrat-Bold.ttf"`

	// The verification base URL is resolved from the first non-empty value;
	// local development falls back to the placeholder.
	PublicURL string `envconfig:"DRIFTKINGS_PUBLIC_URL"`
	SiteURL   string `envconfig:"DRIFTKINGS_SITE_URL"`

	ExpiryMonths int `envconfig:"DRIFTKINGS_VOUCHER_EXPIRY_MONTHS" default:"12"`
}

// VerifyBaseURL resolves the public base for voucher verification links.
func (v VoucherConfig) VerifyBaseURL() string {
	if u := strings.TrimSpace(v.PublicURL); u != "" {
		return u
	}
	if u := strings.TrimSpace(v.SiteURL); u != "" {
		return u
	}
	return "http://localhost:3000"
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range componentDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
