package config

import (
	"VaultKeeper/internal/common"
	"VaultKeeper/internal/crypto"
	"flag"
	"fmt"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Хранилища файлов.
const (
	BlobStoreDB = "db"
	BlobStoreS3 = "s3"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_URI"`
	AuthSecret  string `env:"AUTH_SECRET"`
	// MasterKey — base64 от 32 байт, оборачивает ключи пользователей
	MasterKey string `env:"MASTER_KEY"`

	BaseURL     string        `env:"BASE_URL"`
	EnableHTTPS bool          `env:"ENABLE_HTTPS"`
	ServerURL   string        `env:"-"`
	TokenTTL    time.Duration `env:"TOKEN_TTL"`

	// Файловые записи
	BlobMaxSizeMB int    `env:"BLOB_MAX_MB"`
	BlobStore     string `env:"BLOB_STORE"`
	S3Bucket      string `env:"S3_BUCKET"`
	S3Region      string `env:"S3_REGION"`
	S3Endpoint    string `env:"S3_ENDPOINT"`
	S3AccessKey   string `env:"S3_ACCESS_KEY"`
	S3SecretKey   string `env:"S3_SECRET_KEY"`

	// Доступы и лимиты попыток
	ShareDefaultDelay      time.Duration `env:"SHARE_DEFAULT_DELAY"`
	ShareDefaultIterations int64         `env:"SHARE_DEFAULT_ITERATIONS"`
	LoginMaxAttempts       int           `env:"LOGIN_MAX_ATTEMPTS"`
	ShareMaxFailures       int           `env:"SHARE_MAX_FAILURES"`
}

var hostPortRe = regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// флаги перекрывают env, значения из env служат их умолчаниями
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД (postgres://... или путь к файлу SQLite)")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT")
	flag.StringVar(&cfg.MasterKey, "master-key", cfg.MasterKey, "мастер-ключ сервера, base64 32 байта")
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "адрес сервера host:port")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "сервер доступен по HTTPS (secure cookie)")
	flag.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "срок жизни токена сессии")
	flag.IntVar(&cfg.BlobMaxSizeMB, "blob-max-mb", cfg.BlobMaxSizeMB, "максимальный размер файла, МБ")
	flag.StringVar(&cfg.BlobStore, "blob-store", cfg.BlobStore, "хранилище файлов: db или s3")
	flag.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "бакет S3")
	flag.StringVar(&cfg.S3Region, "s3-region", cfg.S3Region, "регион S3")
	flag.StringVar(&cfg.S3Endpoint, "s3-endpoint", cfg.S3Endpoint, "endpoint S3-совместимого хранилища")
	flag.StringVar(&cfg.S3AccessKey, "s3-access-key", cfg.S3AccessKey, "ключ доступа S3")
	flag.StringVar(&cfg.S3SecretKey, "s3-secret-key", cfg.S3SecretKey, "секрет S3")
	flag.DurationVar(&cfg.ShareDefaultDelay, "share-delay", cfg.ShareDefaultDelay, "срок доступа по умолчанию")
	flag.Int64Var(&cfg.ShareDefaultIterations, "share-iterations", cfg.ShareDefaultIterations, "бюджет обращений по умолчанию")
	flag.IntVar(&cfg.LoginMaxAttempts, "login-attempts", cfg.LoginMaxAttempts, "неудачных входов подряд до блокировки")
	flag.IntVar(&cfg.ShareMaxFailures, "share-failures", cfg.ShareMaxFailures, "неверных токенов подряд до блокировки доступа")

	flag.Parse()

	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.DatabaseDSN == "" {
		c.DatabaseDSN = "vaultkeeper.db"
	}
	// BaseURL только в виде host:port, иначе умолчание
	if !hostPortRe.MatchString(c.BaseURL) {
		c.BaseURL = "localhost:8081"
	}
	if c.EnableHTTPS {
		c.ServerURL = "https://" + c.BaseURL
	} else {
		c.ServerURL = "http://" + c.BaseURL
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 24 * time.Hour
	}
	if c.BlobMaxSizeMB <= 0 {
		c.BlobMaxSizeMB = 50
	}
	if c.BlobStore == "" {
		c.BlobStore = BlobStoreDB
	}
	if c.S3Region == "" {
		c.S3Region = "us-east-1"
	}
	if c.ShareDefaultDelay <= 0 {
		c.ShareDefaultDelay = 7 * 24 * time.Hour
	}
	if c.ShareDefaultIterations <= 0 {
		c.ShareDefaultIterations = 4000
	}
	if c.LoginMaxAttempts <= 0 {
		c.LoginMaxAttempts = 5
	}
	if c.ShareMaxFailures <= 0 {
		c.ShareMaxFailures = 5
	}
}

// Validate проверяет обязательные настройки. Без них сервер не стартует.
func (c *Config) Validate() error {
	if c.AuthSecret == "" {
		return fmt.Errorf("%w: AUTH_SECRET is not set", common.ErrConfiguration)
	}
	if c.MasterKey == "" {
		return fmt.Errorf("%w: MASTER_KEY is not set", common.ErrConfiguration)
	}
	if _, err := crypto.ParseKey(c.MasterKey); err != nil {
		return fmt.Errorf("%w: MASTER_KEY must be base64 of %d bytes: %v", common.ErrConfiguration, crypto.KeyLen, err)
	}
	switch c.BlobStore {
	case BlobStoreDB:
	case BlobStoreS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("%w: S3_BUCKET is required for s3 blob store", common.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown BLOB_STORE %q", common.ErrConfiguration, c.BlobStore)
	}
	return nil
}

// MasterKeyBytes — декодированный мастер-ключ. Вызывать после Validate.
func (c *Config) MasterKeyBytes() ([]byte, error) {
	return crypto.ParseKey(c.MasterKey)
}

// BlobMaxBytes — лимит размера файла в байтах.
func (c *Config) BlobMaxBytes() int64 {
	return int64(c.BlobMaxSizeMB) << 20
}
