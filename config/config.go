package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the player node configuration.
// Most values have simple defaults so a node can start with an empty env.
type Config struct {
	// Node identity
	ScreenID string // logical screen this node displays; all nodes of one screen share a bundle
	DeviceID string // physical device id, used for upload blob ownership

	// Role flags
	EnableAuthoring bool // expose the admin API (bundle mutation endpoints)

	// HTTP
	ListenAddr string

	// Data directories
	DataDir    string // base dir for local state
	CacheDir   string // badger local cache: DataDir/cache
	SignalFile string // cross-instance signal file: DataDir/bundle.signal

	// Sync engine
	TickInterval time.Duration // periodic re-derivation tick

	// Redis配置（远端 bundle 存储）
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO配置（本机 blob 子存储，预签名URL播放）
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// SQLite配置（上传登记表）
	SQLitePath string

	// Catalog lookup (authoring side, read-only)
	CatalogAPIURL string
	CatalogAPIKey string

	// Embed URL templates for catalog content
	EmbedBaseMovie   string
	EmbedBaseShow    string
	EmbedBaseEpisode string

	// 日志配置
	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// Attempt to load .env file. godotenv.Load() will not override existing env vars.
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	dataDir := getEnv("DATA_DIR", "data")

	tickSeconds := getEnvInt("SYNC_TICK_SECONDS", 30)
	if tickSeconds < 1 {
		tickSeconds = 30
	}

	return &Config{
		ScreenID: getEnv("SCREEN_ID", "default"),
		DeviceID: getEnv("DEVICE_ID", "dev-local"),

		EnableAuthoring: getEnvBool("ENABLE_AUTHORING", true),

		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		DataDir:    dataDir,
		CacheDir:   filepath.Join(dataDir, "cache"),
		SignalFile: filepath.Join(dataDir, "bundle.signal"),

		TickInterval: time.Duration(tickSeconds) * time.Second,

		// Redis配置，使用默认值
		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""), // 默认无密码
		RedisDB:       getEnvInt("REDIS_DB", 0),     // 默认使用0号数据库

		// MinIO配置
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"), // 密钥不提供硬编码默认值
		MinioBucket:    getEnv("MINIO_BUCKET", "screensync"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		SQLitePath: getEnv("SQLITE_PATH", filepath.Join(dataDir, "uploads.db")),

		CatalogAPIURL: getEnv("CATALOG_API_URL", "https://api.themoviedb.org/3"),
		CatalogAPIKey: os.Getenv("CATALOG_API_KEY"),

		EmbedBaseMovie:   getEnv("EMBED_BASE_MOVIE", "https://vidsrc.net/embed/movie"),
		EmbedBaseShow:    getEnv("EMBED_BASE_SHOW", "https://vidsrc.net/embed/tv"),
		EmbedBaseEpisode: getEnv("EMBED_BASE_EPISODE", "https://vidsrc.net/embed/tv"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
