package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"newsletter/cache"
	"newsletter/store"
	"newsletter/utils"
	"newsletter/verifier"
)

var (
	DB        *gorm.DB
	AppConfig Config
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type Config struct {
	Environment    string `json:"environment"`
	ServerPort     string `json:"server_port"`
	DBDriver       string `json:"db_driver"`
	DBHost         string `json:"db_host"`
	DBPort         string `json:"db_port"`
	DBUser         string `json:"db_user"`
	DBPassword     string `json:"-"`
	DBName         string `json:"db_name"`
	DBSSLMode      string `json:"db_ssl_mode"`
	DBMaxIdleConns int    `json:"db_max_idle_conns"`
	DBMaxOpenConns int    `json:"db_max_open_conns"`
	SQLitePath     string `json:"sqlite_path"`

	JWTSecret           string        `json:"-"`
	AdminSessionTimeout time.Duration `json:"admin_session_timeout"`
	MaxLoginAttempts    int           `json:"max_login_attempts"`

	MaxDailySubscriptionsPerIP int           `json:"max_daily_subscriptions_per_ip"`
	DisposableCheckEnabled     bool          `json:"disposable_check_enabled"`
	DisposableDomains          []string      `json:"disposable_domains"`
	DisposableDomainsFile      string        `json:"disposable_domains_file"`
	DNSAllowList               []string      `json:"dns_allow_list"`
	DNSLookupTimeout           time.Duration `json:"dns_lookup_timeout"`
	DomainCacheTTL             time.Duration `json:"domain_cache_ttl"`
	MaskRejections             bool          `json:"mask_rejections"`

	CORSAllowedOrigins   []string      `json:"cors_allowed_origins"`
	TrustedIPHeaders     []string      `json:"trusted_ip_headers"`
	Redis                RedisConfig   `json:"redis"`
	SentryDSN            string        `json:"-"`
	RevalidationInterval time.Duration `json:"revalidation_interval"`
	LogLevel             string        `json:"log_level"`
	LogFormat            string        `json:"log_format"`
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadConfig loads .env (if present), reads the environment and stores the
// result in AppConfig.
func LoadConfig() error {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg, err := Load()
	if err != nil {
		return err
	}
	AppConfig = cfg
	logConfig()
	return nil
}

// Load reads configuration from the environment only.
func Load() (Config, error) {
	cfg := Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		ServerPort:     getEnv("SERVER_PORT", "5000"),
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "newsletter"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		SQLitePath:     getEnv("SQLITE_PATH", "newsletter.db"),

		JWTSecret:           getEnv("JWT_SECRET", ""),
		AdminSessionTimeout: getEnvAsDuration("ADMIN_SESSION_TIMEOUT", time.Hour),
		MaxLoginAttempts:    getEnvAsInt("MAX_LOGIN_ATTEMPTS", 5),

		MaxDailySubscriptionsPerIP: getEnvAsInt("MAX_DAILY_SUBSCRIPTIONS_PER_IP", verifier.DefaultDailyLimit),
		DisposableCheckEnabled:     getEnvAsBool("ENABLE_DISPOSABLE_EMAIL_CHECK", true),
		DisposableDomains:          getEnvAsList("DISPOSABLE_DOMAINS"),
		DisposableDomainsFile:      getEnv("DISPOSABLE_DOMAINS_FILE", ""),
		DNSAllowList:               getEnvAsList("DNS_ALLOW_LIST"),
		DNSLookupTimeout:           getEnvAsDuration("DNS_LOOKUP_TIMEOUT", verifier.DefaultLookupTimeout),
		DomainCacheTTL:             getEnvAsDuration("DOMAIN_CACHE_TTL", verifier.DefaultCacheTTL),
		MaskRejections:             getEnvAsBool("MASK_REJECTIONS", true),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		TrustedIPHeaders:   getEnvAsList("TRUSTED_IP_HEADERS"),
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		SentryDSN:            getEnv("SENTRY_DSN", ""),
		RevalidationInterval: getEnvAsDuration("REVALIDATION_INTERVAL", 0),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
	}

	if cfg.DNSAllowList == nil {
		cfg.DNSAllowList = verifier.DefaultDNSAllowList
	}
	// "none" disables proxy headers for servers reached directly.
	switch {
	case cfg.TrustedIPHeaders == nil:
		cfg.TrustedIPHeaders = utils.DefaultClientIPHeaders
	case len(cfg.TrustedIPHeaders) == 1 && strings.EqualFold(cfg.TrustedIPHeaders[0], "none"):
		cfg.TrustedIPHeaders = []string{}
	}

	// Validate required configurations
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return Config{}, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DBDriver)
	}
	if cfg.IsProduction() {
		if cfg.DBDriver == "postgres" && cfg.DBPassword == "" {
			return Config{}, fmt.Errorf("DB_PASSWORD is required")
		}
		if cfg.JWTSecret == "" {
			return Config{}, fmt.Errorf("JWT_SECRET is required in production")
		}
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-me"
	}

	return cfg, nil
}

// VerifierConfig builds the validator configuration. domainCache may be nil,
// in which case an in-process cache is used.
func VerifierConfig(cfg Config, domainCache verifier.Cache) (verifier.Config, error) {
	vc := verifier.DefaultConfig()
	vc.DisposableCheckEnabled = cfg.DisposableCheckEnabled
	vc.DNSAllowList = cfg.DNSAllowList
	vc.LookupTimeout = cfg.DNSLookupTimeout
	vc.CacheTTL = cfg.DomainCacheTTL

	if cfg.DisposableDomainsFile != "" {
		data, err := os.ReadFile(cfg.DisposableDomainsFile)
		if err != nil {
			return verifier.Config{}, fmt.Errorf("read disposable domains file: %w", err)
		}
		vc.DisposableDomains = verifier.ParseDomainList(string(data))
	}
	vc.DisposableDomains = append(vc.DisposableDomains, cfg.DisposableDomains...)

	if domainCache != nil {
		vc.Cache = domainCache
	}
	return vc, nil
}

// NewDomainCache returns a Redis-backed cache when Redis is enabled and
// reachable, and nil otherwise.
func NewDomainCache(cfg Config) (*cache.RedisStorage, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	storage := cache.NewRedisStorage(cache.RedisConfig{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := storage.Ping(ctx); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return storage, nil
}

func ConnectDB(cfg Config) (*gorm.DB, error) {
	log.Println("Attempting to connect to database...")

	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DBDriver {
	case "sqlite":
		log.Println("Using SQLite database:", cfg.SQLitePath)
		db, err = gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
	default:
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
			cfg.DBSSLMode,
		)
		log.Println("Using connection string:", maskPassword(dsn))
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get DB instance: %w", err)
	}

	if cfg.DBDriver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("✅ Successfully connected to the database")
	log.Println("🔄 Starting database migration...")
	if err := store.Migrate(db); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("✅ Database migration completed")

	DB = db
	return db, nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
	if err != nil {
		return fallback
	}
	return value
}

// getEnvAsDuration accepts Go durations ("90s") or a plain number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsList(key string) []string {
	valueStr := getEnv(key, "")
	if strings.TrimSpace(valueStr) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	log.Println("🔧 Loaded configuration:")
	log.Printf("Environment: %s", AppConfig.Environment)
	log.Printf("Server Port: %s", AppConfig.ServerPort)
	if AppConfig.DBDriver == "sqlite" {
		log.Printf("Database: sqlite %s", AppConfig.SQLitePath)
	} else {
		log.Printf("Database: %s@%s:%s/%s",
			AppConfig.DBUser,
			AppConfig.DBHost,
			AppConfig.DBPort,
			AppConfig.DBName)
	}
	log.Printf("Disposable check: %t, daily limit per IP: %d, masked rejections: %t",
		AppConfig.DisposableCheckEnabled,
		AppConfig.MaxDailySubscriptionsPerIP,
		AppConfig.MaskRejections)
	log.Printf("Redis domain cache: %t", AppConfig.Redis.Enabled)
}
