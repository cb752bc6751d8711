package config

import "time"

// Config is the top-level server configuration. Values come from the YAML
// file, then CHUTNEY_* environment variables, then env-default tags.
type Config struct {
	Server       ServerConfig            `yaml:"server"`
	Database     DatabaseConfig          `yaml:"database"`
	Log          LogConfig               `yaml:"log"`
	Engine       EngineConf              `yaml:"engine"`
	SMTP         SMTPConfig              `yaml:"smtp"`
	Environments EnvironmentsConfig      `yaml:"environments"`
	Providers    map[string]ProviderConf `yaml:"providers"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"             env:"CHUTNEY_SERVER_ADDR"             env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"CHUTNEY_SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"CHUTNEY_SERVER_WRITE_TIMEOUT"    env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"CHUTNEY_SERVER_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" env:"CHUTNEY_DATABASE_PATH" env-default:"./data/chutney.db"`
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"CHUTNEY_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"CHUTNEY_LOG_FORMAT" env-default:"json"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	Workers             int `yaml:"workers"               env:"CHUTNEY_ENGINE_WORKERS"               env-default:"16"`
	QueueDepth          int `yaml:"queue_depth"           env:"CHUTNEY_ENGINE_QUEUE_DEPTH"           env-default:"1000"`
	InvocationTimeoutMs int `yaml:"invocation_timeout_ms" env:"CHUTNEY_ENGINE_INVOCATION_TIMEOUT_MS" env-default:"30000"`
}

// InvocationTimeout is the caller-side bound on one synchronous invocation.
func (c EngineConf) InvocationTimeout() time.Duration {
	return time.Duration(c.InvocationTimeoutMs) * time.Millisecond
}

type SMTPConfig struct {
	TimeoutMs int `yaml:"timeout_ms" env:"CHUTNEY_SMTP_TIMEOUT_MS" env-default:"15000"`
}

func (c SMTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// EnvironmentsConfig points at a directory of environment definitions
// imported at start-up and re-imported on change. Empty Dir disables the
// import.
type EnvironmentsConfig struct {
	Dir          string `yaml:"dir"           env:"CHUTNEY_ENVIRONMENTS_DIR"`
	DisableWatch bool   `yaml:"disable_watch" env:"CHUTNEY_ENVIRONMENTS_DISABLE_WATCH"`
}

// ProviderConf declares transport overrides for one mail provider label.
type ProviderConf struct {
	TrustedHost string `yaml:"trusted_host"`
	MinTLS      string `yaml:"min_tls"`
}
