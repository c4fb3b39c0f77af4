package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	GitHub     GitHubConfig     `yaml:"github"`
	Fetch      FetchConfig      `yaml:"fetch"`
	LLM        LLMConfig        `yaml:"llm"`
	Outline    OutlineConfig    `yaml:"outline"`
	Generation GenerationConfig `yaml:"generation"`
	Store      StoreConfig      `yaml:"store"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Events     EventsConfig     `yaml:"events"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string `yaml:"host,omitempty"`
	Port            int    `yaml:"port,omitempty"`
	ReadTimeout     string `yaml:"read_timeout,omitempty"`
	WriteTimeout    string `yaml:"write_timeout,omitempty"`
	ShutdownTimeout string `yaml:"shutdown_timeout,omitempty"`
}

// GitHubConfig controls the GitHub API integration.
// Durations and retry fields cover transient API failures; the client also
// paces itself against GitHub's rate limit headers.
type GitHubConfig struct {
	Token             string           `yaml:"token,omitempty"`
	BaseURL           string           `yaml:"base_url,omitempty"`   // GitHub Enterprise API endpoint
	UploadURL         string           `yaml:"upload_url,omitempty"` // GitHub Enterprise upload endpoint
	RequestsPerSecond float64          `yaml:"requests_per_second,omitempty"`
	Burst             int              `yaml:"burst,omitempty"`
	Timeout           string           `yaml:"timeout,omitempty"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff,omitempty"`
	RetryInitialDelay string           `yaml:"retry_initial_delay,omitempty"`
	RetryMaxDelay     string           `yaml:"retry_max_delay,omitempty"`
	MaxRetries        int              `yaml:"max_retries,omitempty"`
}

// FetchConfig controls how repository trees are obtained.
type FetchConfig struct {
	Mode           FetchMode `yaml:"mode,omitempty"` // api|clone|auto
	MaxDepth       int       `yaml:"max_depth,omitempty"`
	MaxFiles       int       `yaml:"max_files,omitempty"`
	WorkspaceDir   string    `yaml:"workspace_dir,omitempty"`
	KeepWorkspaces bool      `yaml:"keep_workspaces,omitempty"`
	CloneDepth     int       `yaml:"clone_depth,omitempty"` // 0 clones full history
}

// LLMConfig controls the model used for outline synthesis and section content.
type LLMConfig struct {
	Provider    LLMProvider `yaml:"provider,omitempty"` // anthropic|openai|mock
	Model       string      `yaml:"model,omitempty"`
	APIKey      string      `yaml:"api_key,omitempty"`
	BaseURL     string      `yaml:"base_url,omitempty"`
	MaxTokens   int         `yaml:"max_tokens,omitempty"`
	Temperature float64     `yaml:"temperature,omitempty"`
	Timeout     string      `yaml:"timeout,omitempty"`
}

// OutlineConfig controls the structure synthesizer. An empty service_url
// skips the external service and goes straight to the LLM, then the
// built-in default outline.
type OutlineConfig struct {
	ServiceURL string `yaml:"service_url,omitempty"`
	Timeout    string `yaml:"timeout,omitempty"`
}

// GenerationConfig controls pipeline pacing and degradation behavior.
type GenerationConfig struct {
	PacingDelay       string `yaml:"pacing_delay,omitempty"`
	RateLimitCooldown string `yaml:"rate_limit_cooldown,omitempty"`
	PipelineTimeout   string `yaml:"pipeline_timeout,omitempty"`
}

// StoreConfig controls the sqlite persistence layer.
type StoreConfig struct {
	Path      string `yaml:"path,omitempty"`
	Retention string `yaml:"retention,omitempty"` // generated docs older than this are janitored
}

// ScheduleConfig controls background jobs.
type ScheduleConfig struct {
	JanitorInterval string `yaml:"janitor_interval,omitempty"`
	RefreshInterval string `yaml:"refresh_interval,omitempty"` // empty disables periodic refresh
	RefreshLimit    int    `yaml:"refresh_limit,omitempty"`    // max repositories refreshed per run
}

// EventsConfig controls optional NATS JetStream event publishing.
type EventsConfig struct {
	Enabled       bool   `yaml:"enabled,omitempty"`
	URL           string `yaml:"url,omitempty"`
	SubjectPrefix string `yaml:"subject_prefix,omitempty"`
	Stream        string `yaml:"stream,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Default values applied by Load for fields left empty.
const (
	DefaultHost              = "0.0.0.0"
	DefaultPort              = 8080
	DefaultReadTimeout       = 30 * time.Second
	DefaultWriteTimeout      = 16 * time.Minute // must outlast the generation pipeline
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultGitHubTimeout     = 30 * time.Second
	DefaultGitHubRPS         = 1.0
	DefaultGitHubBurst       = 5
	DefaultMaxRetries        = 2
	DefaultMaxDepth          = 5
	DefaultMaxFiles          = 50
	DefaultCloneDepth        = 1
	DefaultLLMTimeout        = 60 * time.Second
	DefaultMaxTokens         = 4096
	DefaultOutlineTimeout    = 30 * time.Second
	DefaultPacingDelay       = 500 * time.Millisecond
	DefaultRateLimitCooldown = 30 * time.Second
	DefaultPipelineTimeout   = 15 * time.Minute
	DefaultStorePath         = "repowiki.db"
	DefaultRetention         = 720 * time.Hour
	DefaultJanitorInterval   = time.Hour
	DefaultRefreshLimit      = 3
	DefaultSubjectPrefix     = "REPOWIKI.documentation"
	DefaultStream            = "REPOWIKI"
)

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just note it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := ValidateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadOrDefault behaves like Load but falls back to a default configuration
// when the file does not exist. Environment expansion still applies via .env.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := loadEnvFile(); err != nil {
			fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
		}
		cfg := &Config{}
		cfg.applyDefaults()
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if err := ValidateConfig(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(configPath)
}

// applyDefaults fills zero-valued fields. Explicit zero cannot be expressed
// for defaulted numeric fields; that matches the rest of the config surface.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.GitHub.RequestsPerSecond == 0 {
		c.GitHub.RequestsPerSecond = DefaultGitHubRPS
	}
	if c.GitHub.Burst == 0 {
		c.GitHub.Burst = DefaultGitHubBurst
	}
	if c.GitHub.RetryBackoff == "" {
		c.GitHub.RetryBackoff = RetryBackoffLinear
	}
	if c.GitHub.MaxRetries == 0 {
		c.GitHub.MaxRetries = DefaultMaxRetries
	}
	if c.Fetch.Mode == "" {
		c.Fetch.Mode = FetchModeAPI
	}
	if c.Fetch.MaxDepth == 0 {
		c.Fetch.MaxDepth = DefaultMaxDepth
	}
	if c.Fetch.MaxFiles == 0 {
		c.Fetch.MaxFiles = DefaultMaxFiles
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = LLMProviderAnthropic
	}
	if c.LLM.Model == "" {
		c.LLM.Model = defaultModelFor(c.LLM.Provider)
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = DefaultMaxTokens
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath
	}
	if c.Schedule.RefreshLimit == 0 {
		c.Schedule.RefreshLimit = DefaultRefreshLimit
	}
	if c.Events.SubjectPrefix == "" {
		c.Events.SubjectPrefix = DefaultSubjectPrefix
	}
	if c.Events.Stream == "" {
		c.Events.Stream = DefaultStream
	}
	if c.Logging.Level == "" {
		c.Logging.Level = string(LogLevelInfo)
	}
	if c.Logging.Format == "" {
		c.Logging.Format = string(LogFormatText)
	}
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		GitHub: GitHubConfig{
			Token:             "${GITHUB_TOKEN}",
			RequestsPerSecond: 1,
			Burst:             5,
		},
		Fetch: FetchConfig{
			Mode:       FetchModeAPI,
			MaxDepth:   5,
			MaxFiles:   50,
			CloneDepth: DefaultCloneDepth,
		},
		LLM: LLMConfig{
			Provider:  LLMProviderAnthropic,
			Model:     "claude-sonnet-4-5",
			APIKey:    "${ANTHROPIC_API_KEY}",
			MaxTokens: 4096,
		},
		Generation: GenerationConfig{
			PacingDelay:       "500ms",
			RateLimitCooldown: "30s",
			PipelineTimeout:   "15m",
		},
		Store: StoreConfig{
			Path:      "repowiki.db",
			Retention: "720h",
		},
		Schedule: ScheduleConfig{
			JanitorInterval: "1h",
		},
		Events: EventsConfig{
			Enabled:       false,
			URL:           "nats://127.0.0.1:4222",
			SubjectPrefix: "REPOWIKI.documentation",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Duration accessors. Validation guarantees parseability for non-empty values;
// empty values fall back to defaults.

func (s ServerConfig) ReadTimeoutDuration() time.Duration {
	return parseDurationOr(s.ReadTimeout, DefaultReadTimeout)
}

func (s ServerConfig) WriteTimeoutDuration() time.Duration {
	return parseDurationOr(s.WriteTimeout, DefaultWriteTimeout)
}

func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return parseDurationOr(s.ShutdownTimeout, DefaultShutdownTimeout)
}

func (g GitHubConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(g.Timeout, DefaultGitHubTimeout)
}

func (g GitHubConfig) RetryInitialDelayDuration() time.Duration {
	return parseDurationOr(g.RetryInitialDelay, time.Second)
}

func (g GitHubConfig) RetryMaxDelayDuration() time.Duration {
	return parseDurationOr(g.RetryMaxDelay, 30*time.Second)
}

func (l LLMConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(l.Timeout, DefaultLLMTimeout)
}

func (o OutlineConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(o.Timeout, DefaultOutlineTimeout)
}

func (g GenerationConfig) PacingDelayDuration() time.Duration {
	return parseDurationOr(g.PacingDelay, DefaultPacingDelay)
}

func (g GenerationConfig) RateLimitCooldownDuration() time.Duration {
	return parseDurationOr(g.RateLimitCooldown, DefaultRateLimitCooldown)
}

func (g GenerationConfig) PipelineTimeoutDuration() time.Duration {
	return parseDurationOr(g.PipelineTimeout, DefaultPipelineTimeout)
}

func (s StoreConfig) RetentionDuration() time.Duration {
	return parseDurationOr(s.Retention, DefaultRetention)
}

func (s ScheduleConfig) JanitorIntervalDuration() time.Duration {
	return parseDurationOr(s.JanitorInterval, DefaultJanitorInterval)
}

// RefreshIntervalDuration returns zero when periodic refresh is disabled.
func (s ScheduleConfig) RefreshIntervalDuration() time.Duration {
	return parseDurationOr(s.RefreshInterval, 0)
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
