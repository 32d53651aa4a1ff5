package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type PollerConfig struct {
	Url      string            `yaml:"url" validate:"required|fullUrl"`
	Interval time.Duration     `yaml:"interval" validate:"required|min:1"`
	Timeout  time.Duration     `yaml:"timeout" validate:"required|min:1"`
	Headers  map[string]string `yaml:"headers"`
}

type RuleConfig struct {
	PlayVoice      bool   `yaml:"playVoice"`
	ShowWebSurface bool   `yaml:"showWebSurface"`
	ShowTransfer   bool   `yaml:"showTransfer"`
	Chain          string `yaml:"chain"`
}

type DispatchConfig struct {
	InjShowsWebSurface bool                  `yaml:"injShowsWebSurface"`
	Rules              map[string]RuleConfig `yaml:"rules"`
}

type AudioConfig struct {
	Enabled   bool          `yaml:"enabled"`
	OutputDir string        `yaml:"outputDir" validate:"required|unixPath"`
	CacheTTL  time.Duration `yaml:"cacheTTL"`
}

type WidgetConfig struct {
	OutputDir string `yaml:"outputDir" validate:"required|unixPath"`
	Sanitize  bool   `yaml:"sanitize"`
}

type AgentConfig struct {
	Enabled bool          `yaml:"enabled"`
	Url     string        `yaml:"url"`
	ApiKey  string        `yaml:"apiKey"`
	Timeout time.Duration `yaml:"timeout"`
	Prompt  string        `yaml:"prompt"`
}

type TranscribeConfig struct {
	Enabled bool          `yaml:"enabled"`
	Url     string        `yaml:"url"`
	ApiKey  string        `yaml:"apiKey"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName    string
	Debug      bool
	Path       string
	Poller     PollerConfig     `yaml:"poller"`
	Dispatch   DispatchConfig   `yaml:"dispatch"`
	Audio      AudioConfig      `yaml:"audio"`
	Widget     WidgetConfig     `yaml:"widget"`
	Agent      AgentConfig      `yaml:"agent"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	WebServer  Server           `yaml:"webServer"`
	Logger     LoggerConfig     `yaml:"logger"`
	Cache      CacheConfig      `yaml:"cache"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}
