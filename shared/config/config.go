package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AI          AIConfig          `yaml:"ai"`
	YouTube     YouTubeConfig     `yaml:"youtube"`
	Speech      SpeechConfig      `yaml:"speech"`
	Storage     StorageConfig     `yaml:"storage"`
	Server      ServerConfig      `yaml:"server"`
	Email       EmailConfig       `yaml:"email"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	TmpDir      string            `yaml:"tmp_dir"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
}

type YouTubeConfig struct {
	// APIKey is optional; when set, fetched metadata is enriched with
	// duration/view counts through the YouTube Data API.
	APIKey      string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	YtDlpPath   string `yaml:"yt_dlp_path"`
	FfmpegPath  string `yaml:"ffmpeg_path"`
	FfprobePath string `yaml:"ffprobe_path"`

	// MaxAudioMinutes caps how long a video may be before the audio
	// transcription fallback refuses to download it. 0 selects the
	// default; a negative value disables the cap.
	MaxAudioMinutes int `yaml:"max_audio_minutes"`
}

type SpeechConfig struct {
	OpenAIAPIKey      string `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	Model             string `yaml:"model"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

type StorageConfig struct {
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
}

type ServerConfig struct {
	Port string `yaml:"port" env:"PORT"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

type MaintenanceConfig struct {
	// Schedule is a cron expression for workspace pruning in serve mode.
	Schedule string `yaml:"schedule"`
	// MaxWorkspaceAgeHours is how long an orphaned audio workspace may
	// linger before the maintenance job removes it.
	MaxWorkspaceAgeHours int `yaml:"max_workspace_age_hours"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if cfg.AI.GeminiAPIKey == "" {
		cfg.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.YouTube.APIKey == "" {
		cfg.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if cfg.Speech.OpenAIAPIKey == "" {
		cfg.Speech.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Storage.DatabaseURL == "" {
		cfg.Storage.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.Email.Username == "" {
		cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}

	if cfg.AI.Model == "" {
		cfg.AI.Model = "gemini-2.5-flash-lite"
	}
	if cfg.YouTube.YtDlpPath == "" {
		cfg.YouTube.YtDlpPath = "yt-dlp"
	}
	if cfg.YouTube.FfmpegPath == "" {
		cfg.YouTube.FfmpegPath = "ffmpeg"
	}
	if cfg.YouTube.FfprobePath == "" {
		cfg.YouTube.FfprobePath = "ffprobe"
	}
	if cfg.YouTube.MaxAudioMinutes == 0 {
		cfg.YouTube.MaxAudioMinutes = 90
	}
	if cfg.Speech.Model == "" {
		cfg.Speech.Model = "whisper-1"
	}
	if cfg.Speech.RequestsPerMinute == 0 {
		cfg.Speech.RequestsPerMinute = 30
	}
	if cfg.Storage.DatabaseURL == "" {
		cfg.Storage.DatabaseURL = "sqlite:./data/notes.db"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Maintenance.Schedule == "" {
		cfg.Maintenance.Schedule = "0 * * * *" // Hourly
	}
	if cfg.Maintenance.MaxWorkspaceAgeHours == 0 {
		cfg.Maintenance.MaxWorkspaceAgeHours = 6
	}
	if cfg.TmpDir == "" {
		cfg.TmpDir = os.TempDir()
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.Speech.OpenAIAPIKey == "" {
		return fmt.Errorf("OpenAI API key is required for audio transcription (set OPENAI_API_KEY or speech.openai_api_key)")
	}
	return nil
}

// EmailEnabled reports whether SMTP delivery is fully configured.
func (c *Config) EmailEnabled() bool {
	return c.Email.SMTPServer != "" && c.Email.Username != "" &&
		c.Email.Password != "" && c.Email.FromEmail != "" && c.Email.ToEmail != ""
}
