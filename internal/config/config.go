package config

import (
	"errors"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Auth   AuthConfig
	Redis  RedisConfig
	S3     S3Config
	Worker WorkerConfig
	Logger Logger
}

type ServerConfig struct {
	AppVersion string
	Port       string
	Mode       string
}

type StoreConfig struct {
	Dir        string
	UsersFile  string
	JobsFile   string
	ResultsDir string
}

type AuthConfig struct {
	// Maximum |server time - client time| accepted on signed requests,
	// in seconds. Zero disables the freshness check.
	FreshnessWindow int64
	BootstrapUser   string
}

type RedisConfig struct {
	RedisAddr     string
	RedisPassword string
	DB            int
	MinIdleConns  int
	PoolSize      int
	PoolTimeout   int
	ProgressKey   string
	UseTLS        bool
}

type S3Config struct {
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	ResultBucket string
}

type WorkerConfig struct {
	ServerURL    string
	Username     string
	Key          string
	PollInterval int
	MaxCPUUsage  float64
	WorkDir      string
	RenderBin    string
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
		if errors.As(err, &configFileNotFound) {
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
	return &c, nil
}
