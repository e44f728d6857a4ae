package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env           string        `yaml:"env" env:"APP_ENV" env-default:"production"`
	Storage       Storage       `yaml:"storage"`
	PGSQL         PQSQL         `yaml:"pgsql"`
	Redis         Redis         `yaml:"redis"`
	MinIO         MinIO         `yaml:"minio"`
	Media         Media         `yaml:"media"`
	Presentations Presentations `yaml:"presentations"`
	RateLimit     RateLimit     `yaml:"rate_limit"`
	Worker        Worker        `yaml:"worker"`
	Admin         Admin         `yaml:"admin"`
	HTTPServer    HTTPServer    `yaml:"http_server"`
	JWTSecret     string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"super_secret_key"`
}

type HTTPServer struct {
	Address      string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"60s"`
}

// Storage selects the backing store. "memory" keeps everything in process and
// is meant for local runs only.
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
}

type PQSQL struct {
	Host     string `yaml:"host" env:"PG_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"PG_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"PG_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"PG_PASSWORD" env-default:"password"`
	DBName   string `yaml:"dbname" env:"PG_DBNAME" env-default:"zcreens_db"`
	SSLMode  string `yaml:"sslmode" env:"PG_SSLMODE" env-default:"disable"`
}

type Redis struct {
	Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type MinIO struct {
	Enabled         bool   `yaml:"enabled" env:"MINIO_ENABLED" env-default:"false"`
	Endpoint        string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"MINIO_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"MINIO_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	BucketName      string `yaml:"bucket_name" env:"MINIO_BUCKET" env-default:"zcreens-originals"`
	UseSSL          bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
	Region          string `yaml:"region" env:"MINIO_REGION" env-default:"us-east-1"`
}

type Media struct {
	// MaxFileSize bounds the multipart body in bytes, independent of any quota.
	MaxFileSize     int64 `yaml:"max_file_size" env-default:"52428800"`
	PresignedURLTTL int   `yaml:"presigned_url_ttl" env-default:"900"`
}

type Presentations struct {
	Retention            time.Duration `yaml:"retention" env-default:"24h"`
	MaxCodeAttempts      int           `yaml:"max_code_attempts" env-default:"5"`
	MaxSlides            int           `yaml:"max_slides" env-default:"300"`
	DefaultSlideInterval time.Duration `yaml:"default_slide_interval" env-default:"5s"`
	DisableDemoSeed      bool          `yaml:"disable_demo_seed"`
}

type RateLimit struct {
	UploadsPerMinute  int64 `yaml:"uploads_per_minute" env-default:"10"`
	ResolvesPerMinute int64 `yaml:"resolves_per_minute" env-default:"120"`
}

// Worker configures the expiry sweep. With InProcess set the API server runs
// the sweep itself instead of relying on cmd/expiry-worker.
type Worker struct {
	Interval  time.Duration `yaml:"interval" env-default:"1m"`
	BatchSize int           `yaml:"batch_size" env-default:"100"`
	InProcess bool          `yaml:"in_process" env:"WORKER_IN_PROCESS"`
}

// Admin bootstraps an administrator at startup when Email is set. An
// existing account with that email is promoted instead.
type Admin struct {
	Email    string `yaml:"email" env:"ADMIN_EMAIL"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`
	Name     string `yaml:"name" env:"ADMIN_NAME" env-default:"Administrator"`
}

// Load reads the config file at path, overlaying environment variables.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist at path: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}

// DSN builds the lib/pq connection string.
func (p PQSQL) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}
