package config

import (
	"fmt"
	"os"
	"path/filepath"

	dlog "github.com/shapedtime/hoardhelper/internal/log"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	WebDAV     WebDAVConfig     `yaml:"webdav"`
	Library    LibraryConfig    `yaml:"library"`
	RealDebrid RealDebridConfig `yaml:"realdebrid"`
	Upload     UploadConfig     `yaml:"upload"`
	Download   DownloadConfig   `yaml:"download"`
	Monitor    MonitorConfig    `yaml:"monitor"`
	Watch      WatchConfig      `yaml:"watch"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        dlog.Config      `yaml:"log"`
}

type ServerConfig struct {
	HTTPPort    int           `yaml:"http_port"`
	MetricsPort int           `yaml:"metrics_port"` // 0 disables the metrics server
	Auth        APIAuthConfig `yaml:"auth"`
}

// APIAuthConfig holds HTTP Basic credentials for the REST API
type APIAuthConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// WebDAVConfig describes the remote store uploads are sent to
type WebDAVConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Timeout  int    `yaml:"timeout"` // seconds
}

// LibraryConfig holds the remote base folders per media type.
// TargetFolder is the legacy single folder, used when a per-type folder is unset.
type LibraryConfig struct {
	TargetFolder      string `yaml:"target_folder,omitempty"`
	TargetFolderTV    string `yaml:"target_folder_tv"`
	TargetFolderMovie string `yaml:"target_folder_movie"`
}

type RealDebridConfig struct {
	APIKey         string  `yaml:"api_key"`
	RequestsPerSec float64 `yaml:"requests_per_sec"`
	Timeout        int     `yaml:"timeout"` // seconds
}

type UploadConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

type DownloadConfig struct {
	TempDir     string `yaml:"temp_dir"`
	Concurrency int    `yaml:"concurrency"`
}

type MonitorConfig struct {
	Enabled       bool    `yaml:"enabled"`
	CheckInterval float64 `yaml:"check_interval"` // seconds, clamped to [30, 300]
}

type WatchConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Folder     string `yaml:"folder"`
	AutoUpload bool   `yaml:"auto_upload"`
}

type DatabaseConfig struct {
	HistoryPath      string `yaml:"history_path"`
	TorrentStorePath string `yaml:"torrent_store_path"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:    4545,
			MetricsPort: 9545,
		},
		WebDAV: WebDAVConfig{
			Timeout: 30,
		},
		RealDebrid: RealDebridConfig{
			RequestsPerSec: 4,
			Timeout:        30,
		},
		Upload: UploadConfig{
			MaxAttempts: 2,
		},
		Download: DownloadConfig{
			TempDir:     filepath.Join(os.TempDir(), "hoardhelper"),
			Concurrency: 3,
		},
		Monitor: MonitorConfig{
			Enabled:       true,
			CheckInterval: 60,
		},
		Watch: WatchConfig{
			Folder: "./data/inbox",
		},
		Database: DatabaseConfig{
			HistoryPath:      "./data/history.db",
			TorrentStorePath: "./data/torrents",
		},
		Log: dlog.Config{
			Level:      "info",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.Library.migrateLegacy()

	return cfg, nil
}

// Save writes the configuration to path. Credentials are stored in it, so the
// file is only readable by the owner.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, data, 0600)
}

// EnsureDirectories creates necessary directories
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Database.HistoryPath),
		c.Database.TorrentStorePath,
		c.Download.TempDir,
	}
	if c.Watch.Enabled {
		dirs = append(dirs, c.Watch.Folder)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}

// migrateLegacy copies the deprecated single target folder into the
// per-type folders that are still empty.
func (l *LibraryConfig) migrateLegacy() {
	if l.TargetFolder == "" {
		return
	}
	if l.TargetFolderTV == "" {
		l.TargetFolderTV = l.TargetFolder
	}
	if l.TargetFolderMovie == "" {
		l.TargetFolderMovie = l.TargetFolder
	}
	l.TargetFolder = ""
}

// TVBase returns the remote base folder for tv episodes.
func (l LibraryConfig) TVBase() string {
	if l.TargetFolderTV != "" {
		return l.TargetFolderTV
	}
	return l.TargetFolder
}

// MovieBase returns the remote base folder for movies.
func (l LibraryConfig) MovieBase() string {
	if l.TargetFolderMovie != "" {
		return l.TargetFolderMovie
	}
	return l.TargetFolder
}
