package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App   AppConfig
	DB    DBConfig
	Redis RedisConfig
	JWT   JWTConfig
	Menu  MenuConfig
	CORS  CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.Menu.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvMenuTimezone, cfg.Menu.Timezone, err)
	}
	cfg.Menu.Location = loc
	if cfg.Menu.RefreshInterval <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvMenuRefreshInterval)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env       string `envconfig:"QRMENU_APP_ENV" default:"dev"`
	Port      string `envconfig:"QRMENU_APP_PORT" default:"8080"`
	LogLevel  string `envconfig:"QRMENU_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"QRMENU_LOG_FORMAT" default:"console"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"QRMENU_DB_DSN"`

	Host     string `envconfig:"QRMENU_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"QRMENU_DB_PORT" default:"5432"`
	User     string `envconfig:"QRMENU_DB_USER" default:"postgres"`
	Password string `envconfig:"QRMENU_DB_PASSWORD"`
	Name     string `envconfig:"QRMENU_DB_NAME" default:"qr_menu"`
	SSLMode  string `envconfig:"QRMENU_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"QRMENU_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"QRMENU_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"QRMENU_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"QRMENU_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"QRMENU_DB_AUTO_MIGRATE" default:"true"`
}

// RedisConfig is optional; an empty URL disables the public menu cache.
type RedisConfig struct {
	URL          string        `envconfig:"QRMENU_REDIS_URL"`
	PoolSize     int           `envconfig:"QRMENU_REDIS_POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"QRMENU_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QRMENU_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"QRMENU_REDIS_WRITE_TIMEOUT" default:"3s"`
	MenuCacheTTL time.Duration `envconfig:"QRMENU_REDIS_MENU_CACHE_TTL" default:"60s"`
	KeyPrefix    string        `envconfig:"QRMENU_REDIS_KEY_PREFIX" default:"qrmenu:menu"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type JWTConfig struct {
	Secret string        `envconfig:"QRMENU_JWT_SECRET" required:"true"`
	Issuer string        `envconfig:"QRMENU_JWT_ISSUER" default:"qr-menu-backend"`
	TTL    time.Duration `envconfig:"QRMENU_JWT_TTL" default:"72h"`
}

type MenuConfig struct {
	PublicBaseURL   string        `envconfig:"QRMENU_MENU_PUBLIC_BASE_URL" default:"http://localhost:3000/#/menu/"`
	RefreshInterval time.Duration `envconfig:"QRMENU_MENU_REFRESH_INTERVAL" default:"60s"`
	Timezone        string        `envconfig:"QRMENU_MENU_TIMEZONE" default:"Local"`
	QRImageSize     int           `envconfig:"QRMENU_MENU_QR_IMAGE_SIZE" default:"400"`

	// Location is resolved from Timezone by Load.
	Location *time.Location `ignored:"true"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"QRMENU_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:3001"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.Host == "" || db.User == "" || db.Name == "" {
		return fmt.Errorf("either %s or %s, %s and %s are required", EnvDBDSN, EnvDBHost, EnvDBUser, EnvDBName)
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
