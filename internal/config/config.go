package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config 存储所有配置信息
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	ServerPort  string `mapstructure:"SERVER_PORT"`
	LogDir      string `mapstructure:"LOG_DIR"`

	// 存储配置 memory|mysql
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	MySQLDSN      string `mapstructure:"MYSQL_DSN"`

	// Redis配置，为空时不启用
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// 鉴权与加密
	JWTSecret  string `mapstructure:"JWT_SECRET"`
	JournalKey string `mapstructure:"JOURNAL_KEY"`

	// 打卡与危机检测
	AppTimezone        string `mapstructure:"APP_TIMEZONE"`
	StreakWindowDays   int    `mapstructure:"STREAK_WINDOW_DAYS"`
	CrisisKeywordsFile string `mapstructure:"CRISIS_KEYWORDS_FILE"`

	// 聊天机器人 gemini|openai|hunyuan
	ChatProvider     string `mapstructure:"CHAT_PROVIDER"`
	GeminiAPIKey     string `mapstructure:"GOOGLE_GEMINI_API_KEY"`
	GeminiModel      string `mapstructure:"GEMINI_MODEL"`
	OpenAIToken      string `mapstructure:"OPENAI_TOKEN"`
	OpenAIModel      string `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL    string `mapstructure:"OPENAI_BASE_URL"`
	TencentSecretID  string `mapstructure:"TENCENTCLOUD_SECRETID"`
	TencentSecretKey string `mapstructure:"TENCENTCLOUD_SECRETKEY"`
	HunyuanModel     string `mapstructure:"HUNYUAN_MODEL"`
	ChatMaxPerDay    int    `mapstructure:"CHAT_MAX_PER_DAY"`
	ChatMaxRunes     int    `mapstructure:"CHAT_MAX_RUNES"`

	// 通知
	TelegramBotToken        string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	TelegramCounselorChatID int64  `mapstructure:"TELEGRAM_COUNSELOR_CHAT_ID"`

	// 定时提醒
	ReminderTime                string        `mapstructure:"REMINDER_TIME"`
	AppointmentReminderInterval time.Duration `mapstructure:"APPOINTMENT_REMINDER_INTERVAL"`
}

var defaults = map[string]interface{}{
	"ENVIRONMENT":                   "development",
	"SERVER_PORT":                   "8080",
	"LOG_DIR":                       "logs",
	"STORAGE_DRIVER":                "memory",
	"MYSQL_DSN":                     "",
	"REDIS_ADDR":                    "",
	"REDIS_PASSWORD":                "",
	"REDIS_DB":                      0,
	"JWT_SECRET":                    "",
	"JOURNAL_KEY":                   "",
	"APP_TIMEZONE":                  "Local",
	"STREAK_WINDOW_DAYS":            30,
	"CRISIS_KEYWORDS_FILE":          "",
	"CHAT_PROVIDER":                 "gemini",
	"GOOGLE_GEMINI_API_KEY":         "",
	"GEMINI_MODEL":                  "gemini-1.5-flash",
	"OPENAI_TOKEN":                  "",
	"OPENAI_MODEL":                  "gpt-4o-mini",
	"OPENAI_BASE_URL":               "",
	"TENCENTCLOUD_SECRETID":         "",
	"TENCENTCLOUD_SECRETKEY":        "",
	"HUNYUAN_MODEL":                 "hunyuan-lite",
	"CHAT_MAX_PER_DAY":              30,
	"CHAT_MAX_RUNES":                1000,
	"TELEGRAM_BOT_TOKEN":            "",
	"TELEGRAM_COUNSELOR_CHAT_ID":    0,
	"REMINDER_TIME":                 "20:30",
	"APPOINTMENT_REMINDER_INTERVAL": "15m",
}

// LoadConfig 从 path 下的 .env 文件和环境变量加载配置，环境变量优先
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	// 先注册默认值，否则 Unmarshal 时读不到只在环境变量里出现的键
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 允许配置文件不存在，此时会从环境变量中读取
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查无法在运行时补救的配置
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "memory":
	case "mysql":
		if c.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN is required when STORAGE_DRIVER=mysql")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, _, err := c.ReminderClock(); err != nil {
		return err
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location 日期计算使用的时区
func (c *Config) Location() (*time.Location, error) {
	if c.AppTimezone == "" || c.AppTimezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.AppTimezone, err)
	}
	return loc, nil
}

// ReminderClock 解析每日提醒时间 HH:MM
func (c *Config) ReminderClock() (hour, minute int, err error) {
	t, err := time.Parse("15:04", c.ReminderTime)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid REMINDER_TIME %q: %w", c.ReminderTime, err)
	}
	return t.Hour(), t.Minute(), nil
}
