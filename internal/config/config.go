// Package config loads pardetect settings from an optional config file and
// PARDETECT_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/matzehuels/pardetect/pkg/detect"
	"github.com/matzehuels/pardetect/pkg/observability"
	"github.com/matzehuels/pardetect/pkg/pipeline"
)

// EnvPrefix prefixes every environment override, e.g.
// PARDETECT_CACHE_BACKEND=redis.
const EnvPrefix = "PARDETECT"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config holds all application configuration.
type Config struct {
	Detect  DetectConfig  `mapstructure:"detect"`
	Task    TaskConfig    `mapstructure:"task"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Neo4j   Neo4jConfig   `mapstructure:"neo4j"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
}

type DetectConfig struct {
	EnableTask         bool `mapstructure:"enable_task"`
	RestrictToLoops    bool `mapstructure:"restrict_to_loops"`
	RemoveDummies      bool `mapstructure:"remove_dummies"`
	PipelineAllowDoAll bool `mapstructure:"pipeline_allow_doall"`
}

// TaskConfig is passed through to task detection unchanged.
type TaskConfig struct {
	FileMapping string `mapstructure:"file_mapping"`
	ResultsFile string `mapstructure:"results_file"`
	CxxfiltPath string `mapstructure:"cxxfilt_path"`
	BuildDir    string `mapstructure:"build_dir"`
}

type CacheConfig struct {
	Backend  string `mapstructure:"backend"`
	Dir      string `mapstructure:"dir"`
	RedisURL string `mapstructure:"redis_url"`

	// KeyPrefix scopes keys when several deployments share one Redis.
	KeyPrefix string `mapstructure:"key_prefix"`
}

type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	Environment  string  `mapstructure:"environment"`
}

type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

var defaults = map[string]any{
	"detect.enable_task":          false,
	"detect.restrict_to_loops":    false,
	"detect.remove_dummies":       true,
	"detect.pipeline_allow_doall": false,
	"task.file_mapping":           "",
	"task.results_file":           "",
	"task.cxxfilt_path":           "",
	"task.build_dir":              "",
	"cache.backend":               CacheFile,
	"cache.dir":                   "",
	"cache.redis_url":             "",
	"cache.key_prefix":            "",
	"tracing.otlp_endpoint":       "",
	"tracing.sample_rate":         1.0,
	"tracing.environment":         "development",
	"neo4j.uri":                   "",
	"neo4j.username":              "neo4j",
	"neo4j.password":              "",
	"mongo.uri":                   "",
	"mongo.database":              "pardetect",
	"mongo.collection":            "reports",
	"server.addr":                 ":8080",
	"log.level":                   "info",
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			warnings = append(warnings, "cache backend 'redis' is configured but redis_url is empty")
		}
	default:
		warnings = append(warnings, fmt.Sprintf("unknown cache backend '%s', falling back to file", c.Cache.Backend))
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}

	if c.Neo4j.URI != "" && c.Neo4j.Password == "" {
		warnings = append(warnings, "neo4j uri is configured but password is empty")
	}

	if c.Detect.PipelineAllowDoAll && !c.Detect.RemoveDummies {
		warnings = append(warnings, "pipeline_allow_doall with remove_dummies off may report stages made of dummy units")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		warnings = append(warnings, fmt.Sprintf("unknown log level '%s'", c.Log.Level))
	}
	return warnings
}

// Load reads configuration from path, if non-empty, and the environment.
// Keys absent from both take their defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// PipelineOptions returns run options seeded from the detect and task
// sections.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		EnableTask:         c.Detect.EnableTask,
		RestrictToLoops:    c.Detect.RestrictToLoops,
		KeepDummies:        !c.Detect.RemoveDummies,
		PipelineAllowDoAll: c.Detect.PipelineAllowDoAll,
		Task: detect.TaskOptions{
			FileMapping: c.Task.FileMapping,
			ResultsFile: c.Task.ResultsFile,
			CxxfiltPath: c.Task.CxxfiltPath,
			BuildDir:    c.Task.BuildDir,
		},
	}
}

// ObservabilityTracing converts the tracing section for observability.InitTracing.
func (c *Config) ObservabilityTracing(version string) *observability.TracingConfig {
	cfg := observability.DefaultTracingConfig()
	cfg.ServiceVersion = version
	cfg.OTLPEndpoint = c.Tracing.OTLPEndpoint
	cfg.SampleRate = c.Tracing.SampleRate
	if c.Tracing.Environment != "" {
		cfg.Environment = c.Tracing.Environment
	}
	return cfg
}
