package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config captures the runtime configuration for the evaluation service.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Synthesis     SynthesisConfig     `mapstructure:"synthesis"`
	Providers     ProviderCredentials `mapstructure:"providers"`
	VoiceCache    VoiceCacheConfig    `mapstructure:"voice_cache"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Batch         BatchConfig         `mapstructure:"batch"`
	Benchmark     BenchmarkConfig     `mapstructure:"benchmark"`
	Reporting     ReportingConfig     `mapstructure:"reporting"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	ListenAddr            string        `mapstructure:"listen_addr"`
	BodyLimitMB           int           `mapstructure:"body_limit_mb"`
	ReadHeaderTimeout     time.Duration `mapstructure:"read_header_timeout"`
	GracefulShutdownDelay time.Duration `mapstructure:"graceful_shutdown_delay"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	RunMigrations   bool          `mapstructure:"run_migrations"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// SynthesisConfig bounds one synthesis attempt.
type SynthesisConfig struct {
	MaxTextLength    int           `mapstructure:"max_text_length"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	StreamChunkBytes int           `mapstructure:"stream_chunk_bytes"`
}

// ProviderCredentials hold per-vendor API keys. An empty credential puts the
// corresponding adapter permanently into demo mode.
type ProviderCredentials struct {
	ElevenLabsKey      string `mapstructure:"elevenlabs_key"`
	GoogleAPIKey       string `mapstructure:"google_api_key"`
	AzureSpeechKey     string `mapstructure:"azure_speech_key"`
	AzureSpeechRegion  string `mapstructure:"azure_speech_region"`
	AWSAccessKeyID     string `mapstructure:"aws_access_key_id"`
	AWSSecretAccessKey string `mapstructure:"aws_secret_access_key"`
	AWSRegion          string `mapstructure:"aws_region"`
	OpenAIKey          string `mapstructure:"openai_key"`
}

type VoiceCacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type StorageConfig struct {
	Backend string             `mapstructure:"backend"`
	Local   StorageLocalConfig `mapstructure:"local"`
	S3      StorageS3Config    `mapstructure:"s3"`
}

type StorageLocalConfig struct {
	Directory string `mapstructure:"directory"`
}

type StorageS3Config struct {
	Bucket       string `mapstructure:"bucket"`
	Prefix       string `mapstructure:"prefix"`
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

type BatchConfig struct {
	MaxTasks      int   `mapstructure:"max_tasks"`
	MaxUploadMB   int   `mapstructure:"max_upload_mb"`
	RetainResults *bool `mapstructure:"retain_results"`
}

type BenchmarkConfig struct {
	MaxIterations int `mapstructure:"max_iterations"`
	MaxTexts      int `mapstructure:"max_texts"`
}

type ReportingConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type ObservabilityConfig struct {
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"`
	EnableOTLP    bool   `mapstructure:"enable_otlp"`
	EnableMetrics bool   `mapstructure:"enable_metrics"`
}

// Options controls the config loader behavior.
type Options struct {
	ConfigFile string
	EnvFile    string
}

// Load returns the merged configuration sourced from YAML and environment variables.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	explicitFile := false
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		explicitFile = true
	} else {
		if cfg := os.Getenv("TTSEVAL_CONFIG_FILE"); cfg != "" {
			v.SetConfigFile(cfg)
			explicitFile = true
		}
	}

	if !explicitFile {
		// Allow standard lookup locations when no explicit file is provided.
		v.SetConfigName("ttseval")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("TTSEVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(timeStringToDurationHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures required values are set and fills derivable defaults.
func (c *Config) Validate() error {
	var missing []string

	if c.Database.URL == "" {
		missing = append(missing, "TTSEVAL_DATABASE_URL")
	}
	if c.Redis.URL == "" {
		missing = append(missing, "TTSEVAL_REDIS_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.Database.RunMigrations && c.Database.MigrationsDir == "" {
		return fmt.Errorf("database.migrations_dir must be provided when run_migrations is true")
	}
	if c.Database.MaxConns < 0 {
		return fmt.Errorf("database.max_conns must be >= 0")
	}
	if c.Redis.PoolSize < 0 {
		return fmt.Errorf("redis.pool_size must be >= 0")
	}

	if c.Synthesis.MaxTextLength <= 0 {
		return fmt.Errorf("synthesis.max_text_length must be > 0")
	}
	if c.Synthesis.RequestTimeout <= 0 {
		return fmt.Errorf("synthesis.request_timeout must be > 0")
	}
	if c.Synthesis.StreamChunkBytes <= 0 {
		c.Synthesis.StreamChunkBytes = 1024
	}

	if c.VoiceCache.Enabled && c.VoiceCache.TTL <= 0 {
		return fmt.Errorf("voice_cache.ttl must be > 0 when the cache is enabled")
	}

	switch strings.ToLower(strings.TrimSpace(c.Storage.Backend)) {
	case "", "local":
		c.Storage.Backend = "local"
		if strings.TrimSpace(c.Storage.Local.Directory) == "" {
			c.Storage.Local.Directory = "./data/audio"
		}
	case "s3":
		c.Storage.Backend = "s3"
		if strings.TrimSpace(c.Storage.S3.Bucket) == "" {
			return fmt.Errorf("storage.s3.bucket must be provided when storage.backend is s3")
		}
	default:
		return fmt.Errorf("storage.backend must be local or s3")
	}

	if c.Batch.MaxTasks <= 0 {
		return fmt.Errorf("batch.max_tasks must be > 0")
	}
	if c.Batch.MaxUploadMB <= 0 {
		c.Batch.MaxUploadMB = 10
	}
	if c.Benchmark.MaxIterations <= 0 {
		return fmt.Errorf("benchmark.max_iterations must be > 0")
	}
	if c.Benchmark.MaxTexts <= 0 {
		return fmt.Errorf("benchmark.max_texts must be > 0")
	}

	reportingTZ := strings.TrimSpace(c.Reporting.Timezone)
	if reportingTZ == "" {
		reportingTZ = "UTC"
	}
	if _, err := time.LoadLocation(reportingTZ); err != nil {
		return fmt.Errorf("invalid reporting.timezone: %w", err)
	}
	c.Reporting.Timezone = reportingTZ

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.body_limit_mb", 20)
	v.SetDefault("server.read_header_timeout", "5s")
	v.SetDefault("server.graceful_shutdown_delay", "5s")

	v.SetDefault("database.run_migrations", true)
	v.SetDefault("database.migrations_dir", "./migrations")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_idle_time", "10m")
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)

	v.SetDefault("synthesis.max_text_length", 5000)
	v.SetDefault("synthesis.request_timeout", "60s")
	v.SetDefault("synthesis.stream_chunk_bytes", 1024)

	v.SetDefault("voice_cache.enabled", true)
	v.SetDefault("voice_cache.ttl", "1h")

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local.directory", "./data/audio")

	v.SetDefault("batch.max_tasks", 500)
	v.SetDefault("batch.max_upload_mb", 10)

	v.SetDefault("benchmark.max_iterations", 50)
	v.SetDefault("benchmark.max_texts", 20)

	v.SetDefault("reporting.timezone", "UTC")

	v.SetDefault("observability.enable_otlp", false)
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.otlp_endpoint", "http://localhost:4317")
}

// RetainBatchResults defaults to true when unset.
func (b BatchConfig) RetainBatchResults() bool {
	if b.RetainResults == nil {
		return true
	}
	return *b.RetainResults
}

func timeStringToDurationHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case time.Duration:
			return v, nil
		case string:
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, err
			}
			return d, nil
		default:
			return nil, fmt.Errorf("cannot decode %T into time.Duration", data)
		}
	}
}
