package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// SMBENCH_SERVER_LISTEN or SMBENCH_STORAGE_S3_BUCKET.
const EnvPrefix = "SMBENCH"

// Default values for configuration options.
const (
	DefaultLogLevel           = "info"
	DefaultListen             = ":8080"
	DefaultRequestsPerMinute  = 120
	DefaultDataDir            = "./data"
	DefaultS3Region           = "us-east-1"
	DefaultPresignExpiry      = time.Hour
	DefaultIndexInterval      = 5 * time.Minute
	DefaultIndexConcurrency   = 4
	DefaultDatabaseDriver     = "sqlite"
	DefaultSQLitePath         = "smbench.db"
	DefaultPostgresPort       = 5432
	DefaultPostgresSSLMode    = "disable"
	DefaultCompareSessionTTL  = 30 * time.Minute
	DefaultCompareMaxSessions = 1024
	DefaultSiteTitle          = "SM Bench"
)

// Config is the root configuration of the smbench viewer.
type Config struct {
	Global   GlobalConfig   `yaml:"global" mapstructure:"global"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Indexing IndexingConfig `yaml:"indexing" mapstructure:"indexing"`
	Compare  CompareConfig  `yaml:"compare" mapstructure:"compare"`
	Vendors  VendorsConfig  `yaml:"vendors" mapstructure:"vendors"`
	Site     SiteConfig     `yaml:"site" mapstructure:"site"`
	Publish  PublishConfig  `yaml:"publish" mapstructure:"publish"`
}

// GlobalConfig contains settings shared by every command.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Listen      string          `yaml:"listen" mapstructure:"listen"`
	CORSOrigins []string        `yaml:"cors_origins,omitempty" mapstructure:"cors_origins"`
	RateLimit   RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	// LogosDir serves vendor logo files under /logos when set.
	LogosDir string `yaml:"logos_dir,omitempty" mapstructure:"logos_dir"`
}

// RateLimitConfig contains per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// StorageConfig selects where result documents are read from. Exactly one
// backend must be enabled.
type StorageConfig struct {
	Local LocalStorageConfig `yaml:"local" mapstructure:"local"`
	S3    S3StorageConfig    `yaml:"s3" mapstructure:"s3"`
}

// LocalStorageConfig reads documents from a directory laid out as
// {dir}/runs.json and {dir}/runs/{id}.json.
type LocalStorageConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
}

// S3StorageConfig reads documents from an S3-compatible bucket.
type S3StorageConfig struct {
	Enabled         bool   `yaml:"enabled" mapstructure:"enabled"`
	EndpointURL     string `yaml:"endpoint_url,omitempty" mapstructure:"endpoint_url"`
	Region          string `yaml:"region,omitempty" mapstructure:"region"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	Prefix          string `yaml:"prefix,omitempty" mapstructure:"prefix"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
	// PresignExpiry is the lifetime of presigned download URLs.
	PresignExpiry time.Duration `yaml:"presign_expiry,omitempty" mapstructure:"presign_expiry"`
}

// IndexingConfig controls the background run indexer.
type IndexingConfig struct {
	Enabled     bool           `yaml:"enabled" mapstructure:"enabled"`
	Interval    time.Duration  `yaml:"interval,omitempty" mapstructure:"interval"`
	Concurrency int            `yaml:"concurrency,omitempty" mapstructure:"concurrency"`
	Database    DatabaseConfig `yaml:"database" mapstructure:"database"`
}

// DatabaseConfig contains index database settings.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver" mapstructure:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
}

// SQLiteConfig contains SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PostgresConfig contains PostgreSQL-specific settings.
type PostgresConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"ssl_mode" mapstructure:"ssl_mode"`
}

// PublishConfig controls where `smbench export --publish` uploads the
// generated static site.
type PublishConfig struct {
	S3 S3PublishConfig `yaml:"s3" mapstructure:"s3"`
}

// S3PublishConfig contains S3 upload settings for the static site.
type S3PublishConfig struct {
	Enabled         bool   `yaml:"enabled" mapstructure:"enabled"`
	EndpointURL     string `yaml:"endpoint_url,omitempty" mapstructure:"endpoint_url"`
	Region          string `yaml:"region,omitempty" mapstructure:"region"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	Prefix          string `yaml:"prefix,omitempty" mapstructure:"prefix"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
	StorageClass    string `yaml:"storage_class,omitempty" mapstructure:"storage_class"`
	ACL             string `yaml:"acl,omitempty" mapstructure:"acl"`
}

// DSN returns the PostgreSQL connection string.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// CompareConfig bounds the server-side compare sessions.
type CompareConfig struct {
	SessionTTL  time.Duration `yaml:"session_ttl" mapstructure:"session_ttl"`
	MaxSessions int           `yaml:"max_sessions" mapstructure:"max_sessions"`
}

// VendorsConfig points at an optional vendor rule table. The built-in
// table is used when RulesFile is empty.
type VendorsConfig struct {
	RulesFile string `yaml:"rules_file,omitempty" mapstructure:"rules_file"`
}

// SiteConfig contains page presentation settings.
type SiteConfig struct {
	Title    string `yaml:"title" mapstructure:"title"`
	BasePath string `yaml:"base_path,omitempty" mapstructure:"base_path"`
}

// Load reads the given config files in order, later files overriding
// earlier ones, then applies SMBENCH_* environment overrides and
// defaults. With no paths only the environment and defaults are used.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range settingKeys(reflect.TypeOf(Config{}), "") {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding env for %q: %w", key, err)
		}
	}

	for i, path := range paths {
		v.SetConfigFile(path)

		var err error
		if i == 0 {
			err = v.ReadInConfig()
		} else {
			err = v.MergeInConfig()
		}

		if err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", path, err)
		}
	}

	var cfg Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           &cfg,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("creating config decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// settingKeys lists the dotted mapstructure keys of every leaf field.
func settingKeys(t reflect.Type, prefix string) []string {
	keys := make([]string, 0, t.NumField())

	for i := range t.NumField() {
		field := t.Field(i)

		tag := strings.Split(field.Tag.Get("mapstructure"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Duration(0)) {
			keys = append(keys, settingKeys(field.Type, key)...)

			continue
		}

		keys = append(keys, key)
	}

	return keys
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}

	if c.Server.RateLimit.RequestsPerMinute == 0 {
		c.Server.RateLimit.RequestsPerMinute = DefaultRequestsPerMinute
	}

	if !c.Storage.Local.Enabled && !c.Storage.S3.Enabled {
		c.Storage.Local.Enabled = true
	}

	if c.Storage.Local.Enabled && c.Storage.Local.Dir == "" {
		c.Storage.Local.Dir = DefaultDataDir
	}

	if c.Storage.S3.Enabled && c.Storage.S3.Region == "" {
		c.Storage.S3.Region = DefaultS3Region
	}

	if c.Storage.S3.Enabled && c.Storage.S3.PresignExpiry == 0 {
		c.Storage.S3.PresignExpiry = DefaultPresignExpiry
	}

	if c.Indexing.Interval == 0 {
		c.Indexing.Interval = DefaultIndexInterval
	}

	if c.Indexing.Concurrency == 0 {
		c.Indexing.Concurrency = DefaultIndexConcurrency
	}

	db := &c.Indexing.Database
	if db.Driver == "" {
		db.Driver = DefaultDatabaseDriver
	}

	if db.Driver == "sqlite" && db.SQLite.Path == "" {
		db.SQLite.Path = DefaultSQLitePath
	}

	if db.Driver == "postgres" {
		if db.Postgres.Port == 0 {
			db.Postgres.Port = DefaultPostgresPort
		}

		if db.Postgres.SSLMode == "" {
			db.Postgres.SSLMode = DefaultPostgresSSLMode
		}
	}

	if c.Compare.SessionTTL == 0 {
		c.Compare.SessionTTL = DefaultCompareSessionTTL
	}

	if c.Compare.MaxSessions == 0 {
		c.Compare.MaxSessions = DefaultCompareMaxSessions
	}

	if c.Site.Title == "" {
		c.Site.Title = DefaultSiteTitle
	}

	c.Site.BasePath = strings.TrimRight(c.Site.BasePath, "/")

	if c.Publish.S3.Enabled && c.Publish.S3.Region == "" {
		c.Publish.S3.Region = DefaultS3Region
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Global.LogLevel); err != nil {
		return fmt.Errorf("global.log_level: %w", err)
	}

	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}

	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_minute must be positive")
	}

	if err := c.Storage.validate(); err != nil {
		return err
	}

	if c.Indexing.Enabled {
		if err := c.Indexing.validate(); err != nil {
			return err
		}
	}

	if c.Compare.SessionTTL <= 0 {
		return fmt.Errorf("compare.session_ttl must be positive")
	}

	if c.Compare.MaxSessions <= 0 {
		return fmt.Errorf("compare.max_sessions must be positive")
	}

	if c.Site.BasePath != "" && !strings.HasPrefix(c.Site.BasePath, "/") {
		return fmt.Errorf("site.base_path must start with /")
	}

	if c.Publish.S3.Enabled && c.Publish.S3.Bucket == "" {
		return fmt.Errorf("publish.s3.bucket is required")
	}

	return nil
}

func (c *StorageConfig) validate() error {
	if c.Local.Enabled && c.S3.Enabled {
		return fmt.Errorf("storage: only one of local or s3 may be enabled")
	}

	if c.Local.Enabled && c.Local.Dir == "" {
		return fmt.Errorf("storage.local.dir is required")
	}

	if c.S3.Enabled && c.S3.Bucket == "" {
		return fmt.Errorf("storage.s3.bucket is required")
	}

	return nil
}

func (c *IndexingConfig) validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("indexing.interval must be positive")
	}

	if c.Concurrency <= 0 {
		return fmt.Errorf("indexing.concurrency must be positive")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return fmt.Errorf("indexing.database.sqlite.path is required")
		}
	case "postgres":
		if c.Database.Postgres.Host == "" {
			return fmt.Errorf("indexing.database.postgres.host is required")
		}

		if c.Database.Postgres.Database == "" {
			return fmt.Errorf("indexing.database.postgres.database is required")
		}
	default:
		return fmt.Errorf(
			"indexing.database.driver: unsupported driver %q", c.Database.Driver,
		)
	}

	return nil
}
