package models

// MConfig Structure
type MConfig struct {
	Name           string         `yaml:"name" env:"NAME"`
	Host           string         `yaml:"host" env:"HOST"`
	Port           int            `yaml:"port" env:"PORT"`
	LogLevel       string         `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat      string         `yaml:"log_format" env:"LOG_FORMAT"` // "json" or "console"
	GrpcHost       string         `yaml:"grpc_host" env:"GRPC_HOST"`
	GrpcPort       int            `yaml:"grpc_port" env:"GRPC_PORT"`
	AllowedOrigins []string       `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
	Session        MSessionConfig `yaml:"session" envPrefix:"SESSION_"`
	Data           MDataConfig    `yaml:"data" envPrefix:"DATA_"`
	Storage        MStorageConfig `yaml:"storage" envPrefix:"STORAGE_"`
}

type MSessionConfig struct {
	RefreshIntervalSeconds int     `yaml:"refresh_interval_seconds" env:"REFRESH_INTERVAL_SECONDS"`
	MaxMessagesPerSecond   float64 `yaml:"max_messages_per_second" env:"MAX_MESSAGES_PER_SECOND"`
	MessageBurst           int     `yaml:"message_burst" env:"MESSAGE_BURST"`
	SendTimeoutSeconds     int     `yaml:"send_timeout_seconds" env:"SEND_TIMEOUT_SECONDS"`
}

type MDataConfig struct {
	Provider         string `yaml:"provider" env:"PROVIDER"` // json | sqlite | postgres
	TimeValuesSource string `yaml:"time_values_source" env:"TIME_VALUES_SOURCE"`
	OhlcSource       string `yaml:"ohlc_source" env:"OHLC_SOURCE"`
	ReloadCron       string `yaml:"reload_cron" env:"RELOAD_CRON"` // optional, seconds field enabled
	WatchFiles       bool   `yaml:"watch_files" env:"WATCH_FILES"`
	MarketHoursOnly  bool   `yaml:"market_hours_only" env:"MARKET_HOURS_ONLY"`
	MarketMIC        string `yaml:"market_mic" env:"MARKET_MIC"`
	RequestTimeout   int    `yaml:"timeout" env:"TIMEOUT"` // seconds, for http(s) sources
	MaxRetries       int    `yaml:"retries" env:"RETRIES"`
}

type MStorageConfig struct {
	DBPath             string `yaml:"db_path" env:"DB_PATH"`
	DBConnectionString string `yaml:"db_connection_string" env:"DB_CONNECTION_STRING"`
}
