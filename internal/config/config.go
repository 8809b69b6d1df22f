package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Postgres  DBConfig
	Redis     RedisConfig
	S3        S3Config
	Logger    Logger
	Worker    WorkerConfig
	Render    RenderConfig
	Captions  CaptionsConfig
	Credits   CreditsConfig
	Providers ProvidersConfig
}

// ProvidersConfig points at the external transcription and detection
// services.
type ProvidersConfig struct {
	TranscriberURL string
	DetectorURL    string
}

type ServerConfig struct {
	AppVersion string
	Port       string
	Mode       string
}

type WorkerConfig struct {
	MaxCPUUsage     float64
	PromoteInterval time.Duration
	PollTimeout     time.Duration
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	PgDriver string
}

type RedisConfig struct {
	RedisAddr     string
	RedisPassword string
	DB            int
	MinIdleConns  int
	PoolSize      int
	PoolTimeout   int
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

type RenderConfig struct {
	FFmpegPath    string
	FFprobePath   string
	TempDir       string
	WatermarkText string
}

type CaptionsConfig struct {
	FontDir    string
	FontFamily string
}

type CreditsConfig struct {
	LowBalanceThreshold int64
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.Is(err, configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if c.Worker.PromoteInterval <= 0 {
		c.Worker.PromoteInterval = time.Second
	}
	if c.Worker.PollTimeout <= 0 {
		c.Worker.PollTimeout = 2 * time.Second
	}
	return &c, nil
}
