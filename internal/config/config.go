package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env string `yaml:"env" env:"ENV" env-default:"production"`
	// Storage selects the record store: "postgres" or "memory".
	Storage    string     `yaml:"storage" env:"STORAGE_DRIVER" env-default:"postgres"`
	PGSQL      PQSQL      `yaml:"pgsql"`
	Redis      Redis      `yaml:"redis"`
	HTTPServer HTTPServer `yaml:"http_server"`
	JWTSecret  string     `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	Auth       Auth       `yaml:"auth"`
	Upload     Upload     `yaml:"upload"`
	Reaper     Reaper     `yaml:"reaper"`
	RateLimit  RateLimit  `yaml:"rate_limit"`
	Widget     Widget     `yaml:"widget"`
}

type HTTPServer struct {
	Address string `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	// MaxRequestSize bounds a single multipart request (one chunk or one direct file).
	MaxRequestSize int64 `yaml:"max_request_size" env-default:"33554432"`
}

type PQSQL struct {
	Host     string `yaml:"host" env:"PG_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"PG_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"PG_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"PG_PASSWORD" env-default:"password"`
	DBName   string `yaml:"dbname" env:"PG_DBNAME" env-default:"dropzone_db"`
	SSLMode  string `yaml:"sslmode" env:"PG_SSLMODE" env-default:"disable"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Auth struct {
	TokenTTL    time.Duration `yaml:"token_ttl" env-default:"24h"`
	NonceTTL    time.Duration `yaml:"nonce_ttl" env-default:"12h"`
	DefaultRole string        `yaml:"default_role" env-default:"author"`
}

type Upload struct {
	TempDir           string        `yaml:"temp_dir" env:"UPLOAD_TEMP_DIR" env-default:"./data/tmp"`
	UploadsDir        string        `yaml:"uploads_dir" env:"UPLOAD_DIR" env-default:"./data/uploads"`
	BaseURL           string        `yaml:"base_url" env:"UPLOAD_BASE_URL" env-default:"http://localhost:8080/uploads"`
	MaxFileSize       int64         `yaml:"max_file_size" env-default:"268435456"`
	AllowedExtensions []string      `yaml:"allowed_extensions" env:"UPLOAD_ALLOWED_EXTENSIONS" env-separator:","`
	LockTTL           time.Duration `yaml:"lock_ttl" env-default:"30s"`
	LockWait          time.Duration `yaml:"lock_wait" env-default:"5s"`
}

type Reaper struct {
	InProcess bool          `yaml:"in_process" env:"REAPER_IN_PROCESS" env-default:"true"`
	Schedule  string        `yaml:"schedule" env-default:"0 */5 * * * *"`
	MaxAge    time.Duration `yaml:"max_age" env-default:"24h"`
}

type RateLimit struct {
	UploadsPerMinute int64 `yaml:"uploads_per_minute" env-default:"600"`
	LoginsPerMinute  int64 `yaml:"logins_per_minute" env-default:"10"`
}

// Widget points the rendered page at the Dropzone library assets.
type Widget struct {
	DropzoneJS  string `yaml:"dropzone_js" env-default:"https://unpkg.com/dropzone@5.9.3/dist/min/dropzone.min.js"`
	DropzoneCSS string `yaml:"dropzone_css" env-default:"https://unpkg.com/dropzone@5.9.3/dist/min/dropzone.min.css"`
	UploadPath  string `yaml:"upload_path" env-default:"/upload"`
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
		log.Fatalf("failed to read config: %s", err)
	}

	return cfg
}

// Load reads the YAML file at configPath and applies environment overrides.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		return nil, err
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Upload.CheckDirs(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// CheckDirs rejects a temp dir that is served publicly through the uploads
// dir, and an uploads dir that the temp reaper would sweep.
func (u Upload) CheckDirs() error {
	temp, err := filepath.Abs(u.TempDir)
	if err != nil {
		return fmt.Errorf("resolve temp_dir: %w", err)
	}
	uploads, err := filepath.Abs(u.UploadsDir)
	if err != nil {
		return fmt.Errorf("resolve uploads_dir: %w", err)
	}

	if within(temp, uploads) {
		return fmt.Errorf("temp_dir %s must not be inside uploads_dir %s", temp, uploads)
	}
	if within(uploads, temp) {
		return fmt.Errorf("uploads_dir %s must not be inside temp_dir %s", uploads, temp)
	}
	return nil
}

// within reports whether path is root or lies below it.
func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
