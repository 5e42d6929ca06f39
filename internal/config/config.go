package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FeedsEnv 设置后覆盖配置文件中的 feeds，内容为按行分隔的 URL。
const FeedsEnv = "FEEDDIGEST_FEEDS"

// Config 是 feeddigest 的顶层配置结构。
type Config struct {
	Feeds      FeedList         `yaml:"feeds"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Curation   CurationConfig   `yaml:"curation"`
	Notify     NotifyConfig     `yaml:"notify"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
}

// SummarizerConfig 摘要服务（OpenAI 兼容 Responses 接口）配置。
type SummarizerConfig struct {
	APIURL string `yaml:"api_url"`
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// CurationConfig 候选条目筛选配置。
type CurationConfig struct {
	// LookbackHours 回溯窗口（小时），早于 now-LookbackHours 的条目会被丢弃。未设置或 0 时为 72。
	LookbackHours int `yaml:"lookback_hours"`
	// MaxPerFeed 每个订阅源最多取前 N 条（在时间过滤之前截断）。
	// 未设置或 0 时为 20，-1 表示不限制。
	MaxPerFeed int `yaml:"max_per_feed"`
	// FetchTimeoutSeconds 单个订阅源的抓取超时，0 表示使用底层传输的默认行为。
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"`
}

// NotifyConfig 摘要投递配置。
type NotifyConfig struct {
	WebhookURL string         `yaml:"webhook_url"`
	Label      string         `yaml:"label"`
	Strict     bool           `yaml:"strict"`
	Telegram   TelegramConfig `yaml:"telegram"`
}

// TelegramConfig 可选的 Telegram 投递目标。
type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// Enabled 返回是否配置了 Telegram 投递。
func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

// ScheduleConfig 守护进程模式的定时配置。Cron 为空时只运行一次。
type ScheduleConfig struct {
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig 运行历史数据库配置，Path 为空则不记录。
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Lookback 返回回溯窗口时长。
func (c CurationConfig) Lookback() time.Duration {
	return time.Duration(c.LookbackHours) * time.Hour
}

// FetchTimeout 返回单源抓取超时，0 表示不设置。
func (c CurationConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// Load 读取 YAML 配置文件并返回 Config。
// 支持 ${VAR_NAME} 形式的环境变量展开。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}
	return Parse(data)
}

// LoadDryRun 与 Load 相同，但不要求配置投递目标，用于 -dry-run 本地预览。
func LoadDryRun(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}
	return parse(data, false)
}

// Parse 解析 YAML 配置内容，填充默认值并校验。
func Parse(data []byte) (*Config, error) {
	return parse(data, true)
}

func parse(data []byte, requireTarget bool) (*Config, error) {
	expanded := os.Expand(string(data), os.Getenv)

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 多行的订阅源列表无法安全地通过 ${VAR} 嵌入 YAML，单独从环境变量读取
	if env := os.Getenv(FeedsEnv); strings.TrimSpace(env) != "" {
		cfg.Feeds = ParseFeedList(env)
	}

	setDefaults(cfg)
	if err := cfg.validate(requireTarget); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	if cfg.Summarizer.APIURL == "" {
		cfg.Summarizer.APIURL = "https://api.openai.com/v1"
	}
	cfg.Summarizer.APIURL = strings.TrimRight(cfg.Summarizer.APIURL, "/")
	if cfg.Summarizer.Model == "" {
		cfg.Summarizer.Model = "gpt-4.1-mini"
	}
	if cfg.Curation.LookbackHours == 0 {
		cfg.Curation.LookbackHours = 72
	}
	if cfg.Curation.MaxPerFeed == 0 {
		cfg.Curation.MaxPerFeed = 20
	}
	if cfg.Notify.Label == "" {
		cfg.Notify.Label = "【每日资讯精选】"
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = "UTC"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	// 去除密钥两端可能的空白（环境变量展开后常见）
	cfg.Summarizer.APIKey = strings.TrimSpace(cfg.Summarizer.APIKey)
	cfg.Notify.WebhookURL = strings.TrimSpace(cfg.Notify.WebhookURL)
	cfg.Notify.Telegram.Token = strings.TrimSpace(cfg.Notify.Telegram.Token)
}

// Validate 检查启动所必需的配置项，任一缺失都应在抓取开始前终止运行。
func (c *Config) Validate() error {
	return c.validate(true)
}

func (c *Config) validate(requireTarget bool) error {
	var errs []error
	if len(c.Feeds) == 0 {
		errs = append(errs, errors.New("feeds 不能为空"))
	}
	if c.Summarizer.APIKey == "" {
		errs = append(errs, errors.New("summarizer.api_key 未配置"))
	}
	if requireTarget && c.Notify.WebhookURL == "" && !c.Notify.Telegram.Enabled() {
		errs = append(errs, errors.New("notify.webhook_url 与 notify.telegram 至少需要配置一个"))
	}
	if c.Curation.LookbackHours < 0 {
		errs = append(errs, fmt.Errorf("curation.lookback_hours 不能为负数: %d", c.Curation.LookbackHours))
	}
	if c.Curation.MaxPerFeed < -1 {
		errs = append(errs, fmt.Errorf("curation.max_per_feed 只能为正数或 -1（不限制）: %d", c.Curation.MaxPerFeed))
	}
	if c.Curation.FetchTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("curation.fetch_timeout_seconds 不能为负数: %d", c.Curation.FetchTimeoutSeconds))
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("schedule.timezone 无效 %q: %w", c.Schedule.Timezone, err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("配置校验失败: %w", errors.Join(errs...))
	}
	return nil
}
