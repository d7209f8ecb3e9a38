package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/constants"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Model    ModelConfig    `yaml:"model"`
	Raster   RasterConfig   `yaml:"raster"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Prompts  PromptConfig   `yaml:"prompts"`
}

// ServerConfig holds HTTP and gRPC listener configuration
type ServerConfig struct {
	HTTPAddr       string        `yaml:"http_addr"`
	GRPCAddr       string        `yaml:"grpc_addr"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	HealthInterval time.Duration `yaml:"health_interval"`
}

// ModelConfig selects and configures the vision model backend
type ModelConfig struct {
	Backend       string        `yaml:"backend"` // ollama | gemini
	BaseURL       string        `yaml:"base_url"`
	Name          string        `yaml:"name"`
	Timeout       time.Duration `yaml:"timeout"`
	GeminiAPIKey  string        `yaml:"gemini_api_key"`
	GeminiModel   string        `yaml:"gemini_model"`
	GeminiBaseURL string        `yaml:"gemini_base_url"` // empty uses the public endpoint
}

// RasterConfig holds page rendering configuration
type RasterConfig struct {
	Pdftoppm              string `yaml:"pdftoppm"`
	DPI                   int    `yaml:"dpi"`
	MaxPages              int    `yaml:"max_pages"`
	MaxImageWidth         int    `yaml:"max_image_width"`
	MaxImageHeight        int    `yaml:"max_image_height"`
	DocxParagraphsPerPage int    `yaml:"docx_paragraphs_per_page"`
	PreprocessImages      bool   `yaml:"preprocess_images"`
}

// PipelineConfig holds concurrency configuration
type PipelineConfig struct {
	PageWorkers     int           `yaml:"page_workers"`
	QueueWorkers    int           `yaml:"queue_workers"`
	QueueSize       int           `yaml:"queue_size"`
	DocumentTimeout time.Duration `yaml:"document_timeout"`
}

// StorageConfig holds the data root; uploads, screenshots and outputs live beneath it
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// DatabaseConfig holds ledger configuration
type DatabaseConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Format string `yaml:"format"` // text | json
	Level  string `yaml:"level"`
}

// PromptConfig holds the instruction sent with each task kind
type PromptConfig struct {
	Classify     string `yaml:"classify"`
	ExtractText  string `yaml:"extract_text"`
	ExtractTable string `yaml:"extract_table"`
}

const (
	DefaultClassifyPrompt     = "Analyze this document image and determine its type (text document, form, invoice, etc.). Identify if it contains tables, images with text, or pure text content."
	DefaultExtractTextPrompt  = "Extract all text content from this image. Format the output as JSON with headers and content sections. Identify any sections, titles, or structural elements in the document."
	DefaultExtractTablePrompt = "Extract any tables from this image. For each table, provide the data in a structured format with column headers and row values. Format as JSON that can be converted to Excel."
)

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	dataDir := getEnv("DATA_DIR", "data")
	return &Config{
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":5000"),
			GRPCAddr:       getEnv("GRPC_ADDR", ":5001"),
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", constants.MaxUploadBytesDefault),
			HealthInterval: getEnvAsDuration("HEALTH_INTERVAL", 30*time.Second),
		},
		Model: ModelConfig{
			Backend:       strings.ToLower(getEnv("MODEL_BACKEND", "ollama")),
			BaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434/api"),
			Name:          getEnv("OLLAMA_MODEL", "gemma3:4b"),
			Timeout:       getEnvAsDuration("MODEL_TIMEOUT", 120*time.Second),
			GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
			GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			GeminiBaseURL: getEnv("GEMINI_BASE_URL", ""),
		},
		Raster: RasterConfig{
			Pdftoppm:              getEnv("PDFTOPPM_BIN", "pdftoppm"),
			DPI:                   getEnvAsInt("PDF_DPI", 300),
			MaxPages:              getEnvAsInt("MAX_PAGES", 0),
			MaxImageWidth:         getEnvAsInt("MAX_IMAGE_WIDTH", 1200),
			MaxImageHeight:        getEnvAsInt("MAX_IMAGE_HEIGHT", 1200),
			DocxParagraphsPerPage: getEnvAsInt("DOCX_PARAGRAPHS_PER_PAGE", 10),
			PreprocessImages:      getEnvAsBool("PREPROCESS_IMAGES", true),
		},
		Pipeline: PipelineConfig{
			PageWorkers:     getEnvAsInt("PAGE_WORKERS", 2),
			QueueWorkers:    getEnvAsInt("QUEUE_WORKERS", 2),
			QueueSize:       getEnvAsInt("QUEUE_SIZE", 64),
			DocumentTimeout: getEnvAsDuration("DOCUMENT_TIMEOUT", 30*time.Minute),
		},
		Storage: StorageConfig{
			DataDir: dataDir,
		},
		Database: DatabaseConfig{
			DSN:          getEnv("DB_URL", "file:"+filepath.ToSlash(filepath.Join(dataDir, "ocr-extractor.db"))),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 4),
			DialTimeout:  getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Log: LogConfig{
			Format: getEnv("LOG_FORMAT", "text"),
			Level:  getEnv("LOG_LEVEL", "info"),
		},
		Prompts: PromptConfig{
			Classify:     getEnv("PROMPT_CLASSIFY", DefaultClassifyPrompt),
			ExtractText:  getEnv("PROMPT_EXTRACT_TEXT", DefaultExtractTextPrompt),
			ExtractTable: getEnv("PROMPT_EXTRACT_TABLE", DefaultExtractTablePrompt),
		},
	}
}

// LoadConfigFile overlays the YAML file at path onto cfg. Keys absent from the file keep their current value.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("read config file %s", path), err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("parse config file %s", path), err)
	}
	cfg.Model.Backend = strings.ToLower(cfg.Model.Backend)
	return nil
}

// UploadDir is where incoming documents are stored.
func (s StorageConfig) UploadDir() string { return filepath.Join(s.DataDir, constants.UploadsDir) }

// ScreenshotDir is the root of per-document page image folders.
func (s StorageConfig) ScreenshotDir() string {
	return filepath.Join(s.DataDir, constants.ScreenshotsDir)
}

// OutputDir holds the JSON and spreadsheet artifacts.
func (s StorageConfig) OutputDir() string { return filepath.Join(s.DataDir, constants.OutputsDir) }

// EnsureDirs creates the three data folders if absent.
func (s StorageConfig) EnsureDirs() error {
	for _, dir := range []string{s.UploadDir(), s.ScreenshotDir(), s.OutputDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return WrapError(err, "create "+dir)
		}
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Model.Backend {
	case "ollama":
		if c.Model.BaseURL == "" {
			return NewAppError("CONFIG_ERROR", "OLLAMA_BASE_URL is required", ErrInvalidInput)
		}
		if c.Model.Name == "" {
			return NewAppError("CONFIG_ERROR", "OLLAMA_MODEL is required", ErrInvalidInput)
		}
	case "gemini":
		if c.Model.GeminiAPIKey == "" {
			return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required for the gemini backend", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown MODEL_BACKEND %q", c.Model.Backend), ErrInvalidInput)
	}
	if c.Raster.DPI <= 0 {
		return NewAppError("CONFIG_ERROR", "PDF_DPI must be positive", ErrInvalidInput)
	}
	if c.Raster.DocxParagraphsPerPage <= 0 {
		return NewAppError("CONFIG_ERROR", "DOCX_PARAGRAPHS_PER_PAGE must be positive", ErrInvalidInput)
	}
	if c.Pipeline.PageWorkers <= 0 {
		return NewAppError("CONFIG_ERROR", "PAGE_WORKERS must be positive", ErrInvalidInput)
	}
	if c.Storage.DataDir == "" {
		return NewAppError("CONFIG_ERROR", "DATA_DIR is required", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	return nil
}
