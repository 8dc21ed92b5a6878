package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultModel      = "openai/gpt-oss-120b:groq"
	DefaultLLMBaseURL = "https://router.huggingface.co/v1"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	AccountAPI AccountAPIConfig `mapstructure:"account_api"`
	LLM        ModelConfig      `mapstructure:"llm"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug | release | test
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // mysql | sqlite
	DSN    string `mapstructure:"dsn"`
}

// AccountAPIConfig 指向提供 goals/income/transactions 的主业务 API
type AccountAPIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ModelConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json
}

// legacyEnv 兼容旧部署里使用的环境变量名
var legacyEnv = map[string]string{
	"llm.api_key":          "HF_TOKEN",
	"llm.base_url":         "HUGGINGFACE_ROUTER_URL",
	"account_api.base_url": "MAIN_API_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "finsight.db")
	v.SetDefault("account_api.base_url", "http://localhost:5000")
	v.SetDefault("account_api.timeout", 10*time.Second)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", DefaultLLMBaseURL)
	v.SetDefault("llm.model", DefaultModel)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load 读取配置：默认值 < config.yaml < .env < 环境变量
// paths 为空时在当前目录和 ./config 下查找 config.yaml，文件不存在不算错误。
func Load(paths ...string) (*Config, error) {
	// .env 只是可选的便利手段
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// 例如 FINSIGHT_LLM_API_KEY 覆盖 llm.api_key
	v.SetEnvPrefix("FINSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		envName := "FINSIGHT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envName, legacy); err != nil {
			return nil, fmt.Errorf("绑定环境变量 %s 失败: %w", legacy, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查无法启动服务的配置值。缺少 API Key 不算错误，调用时会降级处理。
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("unsupported server mode %q", c.Server.Mode)
	}
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if c.AccountAPI.BaseURL == "" {
		return errors.New("account_api.base_url is required")
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model is required")
	}
	if c.LLM.Timeout <= 0 || c.AccountAPI.Timeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}
