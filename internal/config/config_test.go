package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
feeds: |
  https://example.com/a.xml

  https://example.com/b.xml
summarizer:
  api_key: test-key
notify:
  webhook_url: https://hooks.example.com/T000
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestSetDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	checks := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"Summarizer.APIURL", cfg.Summarizer.APIURL, "https://api.openai.com/v1"},
		{"Summarizer.Model", cfg.Summarizer.Model, "gpt-4.1-mini"},
		{"Curation.LookbackHours", cfg.Curation.LookbackHours, 72},
		{"Curation.MaxPerFeed", cfg.Curation.MaxPerFeed, 20},
		{"Curation.FetchTimeoutSeconds", cfg.Curation.FetchTimeoutSeconds, 0},
		{"Notify.Label", cfg.Notify.Label, "【每日资讯精选】"},
		{"Schedule.Timezone", cfg.Schedule.Timezone, "UTC"},
		{"Log.Level", cfg.Log.Level, "info"},
	}

	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestSetDefaults_DoesNotOverride(t *testing.T) {
	cfg := &Config{
		Summarizer: SummarizerConfig{APIURL: "https://llm.example.com/v1/", Model: "custom-model"},
		Curation:   CurationConfig{LookbackHours: 24, MaxPerFeed: 5},
		Notify:     NotifyConfig{Label: "Digest"},
		Log:        LogConfig{Level: "debug"},
	}
	setDefaults(cfg)

	if cfg.Summarizer.APIURL != "https://llm.example.com/v1" {
		t.Errorf("APIURL 应去掉结尾的斜杠: got %s", cfg.Summarizer.APIURL)
	}
	if cfg.Summarizer.Model != "custom-model" {
		t.Errorf("Model should not be overridden: got %s", cfg.Summarizer.Model)
	}
	if cfg.Curation.LookbackHours != 24 || cfg.Curation.MaxPerFeed != 5 {
		t.Errorf("Curation should not be overridden: got %+v", cfg.Curation)
	}
	if cfg.Notify.Label != "Digest" {
		t.Errorf("Label should not be overridden: got %s", cfg.Notify.Label)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level should not be overridden: got %s", cfg.Log.Level)
	}
}

func TestSetDefaults_TrimsSecrets(t *testing.T) {
	cfg := &Config{
		Summarizer: SummarizerConfig{APIKey: "  key-with-spaces  "},
		Notify:     NotifyConfig{WebhookURL: " https://hooks.example.com \n"},
	}
	setDefaults(cfg)
	if cfg.Summarizer.APIKey != "key-with-spaces" {
		t.Errorf("expected trimmed API key, got %q", cfg.Summarizer.APIKey)
	}
	if cfg.Notify.WebhookURL != "https://hooks.example.com" {
		t.Errorf("expected trimmed webhook, got %q", cfg.Notify.WebhookURL)
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML+`
curation:
  lookback_hours: 48
  max_per_feed: 10
log:
  level: debug
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := FeedList{"https://example.com/a.xml", "https://example.com/b.xml"}
	if len(cfg.Feeds) != len(want) {
		t.Fatalf("Feeds: got %v, want %v", cfg.Feeds, want)
	}
	for i := range want {
		if cfg.Feeds[i] != want[i] {
			t.Errorf("Feeds[%d]: got %q, want %q", i, cfg.Feeds[i], want[i])
		}
	}
	if cfg.Curation.Lookback() != 48*time.Hour {
		t.Errorf("Lookback: got %v, want 48h", cfg.Curation.Lookback())
	}
	if cfg.Curation.MaxPerFeed != 10 {
		t.Errorf("MaxPerFeed: got %d, want 10", cfg.Curation.MaxPerFeed)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level: got %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Summarizer.Model != "gpt-4.1-mini" {
		t.Errorf("Model should default, got %q", cfg.Summarizer.Model)
	}
}

func TestLoad_FeedSequence(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
feeds:
  - " https://example.com/a.xml "
  - https://example.com/a.xml
  - ""
summarizer:
  api_key: k
notify:
  webhook_url: https://hooks.example.com
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	// 去空白、去空行，但重复项保留
	if len(cfg.Feeds) != 2 || cfg.Feeds[0] != "https://example.com/a.xml" || cfg.Feeds[1] != cfg.Feeds[0] {
		t.Errorf("unexpected feeds: %q", cfg.Feeds)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_API_KEY", "secret-from-env")
	t.Setenv(FeedsEnv, "https://env.example.com/1.xml\n\nhttps://env.example.com/2.xml\n")

	cfg, err := Load(writeConfig(t, `
summarizer:
  api_key: "${TEST_API_KEY}"
notify:
  webhook_url: https://hooks.example.com
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Summarizer.APIKey != "secret-from-env" {
		t.Errorf("expected env var expansion, got %q", cfg.Summarizer.APIKey)
	}
	if len(cfg.Feeds) != 2 || cfg.Feeds[1] != "https://env.example.com/2.xml" {
		t.Errorf("expected feeds from %s, got %q", FeedsEnv, cfg.Feeds)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestValidate_FatalStartupErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing credential",
			yaml:    "feeds: https://example.com/a.xml\nnotify:\n  webhook_url: https://hooks.example.com\n",
			wantErr: "summarizer.api_key",
		},
		{
			name:    "empty feed list",
			yaml:    "feeds: \"\\n  \\n\"\nsummarizer:\n  api_key: k\nnotify:\n  webhook_url: https://hooks.example.com\n",
			wantErr: "feeds",
		},
		{
			name:    "missing delivery target",
			yaml:    "feeds: https://example.com/a.xml\nsummarizer:\n  api_key: k\n",
			wantErr: "notify.webhook_url",
		},
		{
			name:    "max_per_feed below -1",
			yaml:    minimalYAML + "curation:\n  max_per_feed: -2\n",
			wantErr: "curation.max_per_feed",
		},
		{
			name:    "bad timezone",
			yaml:    minimalYAML + "schedule:\n  timezone: Mars/Olympus\n",
			wantErr: "schedule.timezone",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatal("期望返回错误")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("错误信息应包含 %q，实际: %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidate_TelegramOnly(t *testing.T) {
	cfg, err := Parse([]byte(`
feeds: https://example.com/a.xml
summarizer:
  api_key: k
notify:
  telegram:
    token: "123:abc"
    chat_id: 42
`))
	if err != nil {
		t.Fatalf("仅配置 Telegram 时不应报错: %v", err)
	}
	if !cfg.Notify.Telegram.Enabled() {
		t.Error("Telegram 应为启用状态")
	}
}

func TestParseFeedList(t *testing.T) {
	got := ParseFeedList("  https://a\r\n\n\thttps://b  \nhttps://a")
	want := []string{"https://a", "https://b", "https://a"}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParse_MaxPerFeedUnlimited(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML + "curation:\n  max_per_feed: -1\n"))
	if err != nil {
		t.Fatalf("max_per_feed: -1 应合法: %v", err)
	}
	if cfg.Curation.MaxPerFeed != -1 {
		t.Errorf("MaxPerFeed = %d, 期望 -1（不限制）", cfg.Curation.MaxPerFeed)
	}

	cfg, err = Parse([]byte(minimalYAML + "curation:\n  max_per_feed: 0\n  lookback_hours: 0\n"))
	if err != nil {
		t.Fatalf("Parse 失败: %v", err)
	}
	if cfg.Curation.MaxPerFeed != 20 || cfg.Curation.LookbackHours != 72 {
		t.Errorf("0 应使用默认值，实际 max_per_feed=%d lookback_hours=%d",
			cfg.Curation.MaxPerFeed, cfg.Curation.LookbackHours)
	}
}

func TestLoadDryRun_NoDeliveryTarget(t *testing.T) {
	path := writeConfig(t, "feeds: https://example.com/a.xml\nsummarizer:\n  api_key: k\n")

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "notify.webhook_url") {
		t.Fatalf("Load 应要求投递目标，实际: %v", err)
	}

	cfg, err := LoadDryRun(path)
	if err != nil {
		t.Fatalf("LoadDryRun 不应要求投递目标: %v", err)
	}
	if len(cfg.Feeds) != 1 {
		t.Errorf("期望 1 个订阅源，实际 %d", len(cfg.Feeds))
	}
}

func TestLoadDryRun_StillValidatesOtherFields(t *testing.T) {
	path := writeConfig(t, "feeds: https://example.com/a.xml\n")
	if _, err := LoadDryRun(path); err == nil || !strings.Contains(err.Error(), "summarizer.api_key") {
		t.Fatalf("缺少 api_key 仍应报错，实际: %v", err)
	}
}

func TestParse_FeedsEnvKeepsDollar(t *testing.T) {
	const feed = "https://example.com/rss?filter=$top"
	yaml := "feeds: " + feed + "\nsummarizer:\n  api_key: k\nnotify:\n  webhook_url: https://hooks.example.com\n"

	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse 失败: %v", err)
	}
	if cfg.Feeds[0] == feed {
		t.Fatalf("配置文件中的 $ 会被当作环境变量展开: %q", cfg.Feeds[0])
	}

	t.Setenv(FeedsEnv, feed)
	cfg, err = Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse 失败: %v", err)
	}
	if len(cfg.Feeds) != 1 || cfg.Feeds[0] != feed {
		t.Errorf("%s 中的 URL 应原样保留，实际 %q", FeedsEnv, cfg.Feeds)
	}
}
