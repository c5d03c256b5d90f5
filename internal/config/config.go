// Package config loads taskcal settings. Later sources win: built-in
// defaults, the TOML file, a .env file, then TASKCAL_* environment variables.
// Command-line flags are applied by the caller on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/sandeepkv93/taskcal/internal/calendar"
	"github.com/sandeepkv93/taskcal/internal/model"
	"github.com/sandeepkv93/taskcal/internal/reminder"
	"github.com/sandeepkv93/taskcal/internal/storage"
	"github.com/sandeepkv93/taskcal/internal/todo"
)

type Config struct {
	Storage   Storage   `toml:"storage"`
	Calendar  Calendar  `toml:"calendar"`
	Reminders Reminders `toml:"reminders"`
	Log       Log       `toml:"log"`

	// Today pins the current date, mostly for scripts and tests.
	Today string `toml:"-"`
}

type Storage struct {
	Backend   string `toml:"backend"`
	Path      string `toml:"path"`
	URL       string `toml:"url"`
	SaveMode  string `toml:"save-mode"`
	SaveDelay string `toml:"save-delay"`
}

type Calendar struct {
	WeekStart   string `toml:"week-start"`
	DefaultView string `toml:"default-view"`
	Timezone    string `toml:"timezone"`
	WeekFrom    int    `toml:"week-from-hour"`
	WeekTo      int    `toml:"week-to-hour"`
}

type Reminders struct {
	Digest  string `toml:"digest"`
	Desktop bool   `toml:"desktop"`
	Buffer  int    `toml:"buffer"`
}

type Log struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Default returns the built-in settings rooted at dataDir.
func Default(dataDir string) Config {
	return Config{
		Storage: Storage{
			Backend:   string(storage.BackendJSON),
			Path:      filepath.Join(dataDir, "tasks.json"),
			SaveMode:  string(todo.SaveImmediate),
			SaveDelay: "500ms",
		},
		Calendar: Calendar{
			WeekStart:   "monday",
			DefaultView: string(calendar.ModeMonth),
			WeekFrom:    7,
			WeekTo:      22,
		},
		Reminders: Reminders{
			Digest: reminder.DefaultDigestSpec,
			Buffer: 64,
		},
		Log: Log{
			Level: "info",
			File:  filepath.Join(dataDir, "taskcal.log"),
		},
	}
}

// DefaultDataDir is ~/.local/share/taskcal.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "taskcal"), nil
}

// DefaultConfigPath is ~/.config/taskcal/config.toml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "taskcal", "config.toml"), nil
}

type LoadOptions struct {
	// Path is an explicit config file; it must exist when set.
	Path string
	// EnvFile is the dotenv file to read; missing files are ignored.
	EnvFile string
}

func Load(opts LoadOptions) (Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read env file %s: %w", envFile, err)
	}

	dataDir := strings.TrimSpace(os.Getenv("TASKCAL_DATA_DIR"))
	if dataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return Config{}, err
		}
		dataDir = dir
	}
	cfg := Default(dataDir)

	path := opts.Path
	required := path != ""
	if path == "" {
		path = strings.TrimSpace(os.Getenv("TASKCAL_CONFIG"))
		required = path != ""
	}
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	if err := loadFile(path, required, &cfg); err != nil {
		return Config{}, err
	}

	cfg = FromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, required bool, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// FromEnv overlays TASKCAL_* variables onto base.
func FromEnv(base Config) Config {
	cfg := base
	if v, ok := getEnvString("TASKCAL_STORE"); ok {
		cfg.Storage.Backend = v
	}
	if v, ok := getEnvString("TASKCAL_STORE_PATH"); ok {
		cfg.Storage.Path = v
	}
	if v, ok := getEnvString("TASKCAL_DATABASE_URL"); ok {
		cfg.Storage.URL = v
	}
	if v, ok := getEnvString("TASKCAL_SAVE_MODE"); ok {
		cfg.Storage.SaveMode = v
	}
	if v, ok := getEnvString("TASKCAL_SAVE_DELAY"); ok {
		cfg.Storage.SaveDelay = v
	}
	if v, ok := getEnvString("TASKCAL_WEEK_START"); ok {
		cfg.Calendar.WeekStart = v
	}
	if v, ok := getEnvString("TASKCAL_VIEW"); ok {
		cfg.Calendar.DefaultView = v
	}
	if v, ok := getEnvString("TASKCAL_TIMEZONE"); ok {
		cfg.Calendar.Timezone = v
	}
	if v, ok := getEnvString("TASKCAL_DIGEST"); ok {
		cfg.Reminders.Digest = v
	}
	if v, ok := getEnvBool("TASKCAL_DESKTOP_NOTIFICATIONS"); ok {
		cfg.Reminders.Desktop = v
	}
	if v, ok := getEnvInt("TASKCAL_REMINDER_BUFFER"); ok && v > 0 {
		cfg.Reminders.Buffer = v
	}
	if v, ok := getEnvString("TASKCAL_LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := getEnvString("TASKCAL_LOG_FILE"); ok {
		cfg.Log.File = v
	}
	if v, ok := getEnvString("TASKCAL_TODAY"); ok {
		cfg.Today = v
	}
	return cfg
}

func (c Config) Validate() error {
	if _, err := c.Backend(); err != nil {
		return err
	}
	if c.Location() == "" {
		return errors.New("config: storage location is empty")
	}
	if _, err := todo.ParseSaveMode(c.Storage.SaveMode); err != nil {
		return err
	}
	if _, err := c.SaveDelay(); err != nil {
		return err
	}
	if _, err := c.WeekStart(); err != nil {
		return err
	}
	if _, err := c.View(); err != nil {
		return err
	}
	if _, err := c.TimeZone(); err != nil {
		return err
	}
	if _, err := c.TodayOverride(); err != nil {
		return err
	}
	if c.Calendar.WeekFrom < 0 || c.Calendar.WeekTo > 23 || c.Calendar.WeekFrom > c.Calendar.WeekTo {
		return fmt.Errorf("config: invalid week hours %d..%d", c.Calendar.WeekFrom, c.Calendar.WeekTo)
	}
	return nil
}

func (c Config) Backend() (storage.Backend, error) {
	return storage.ParseBackend(c.Storage.Backend)
}

// Location is the file path or URL handed to storage.Open.
func (c Config) Location() string {
	b, _ := c.Backend()
	if b == storage.BackendPostgres {
		return strings.TrimSpace(c.Storage.URL)
	}
	path := strings.TrimSpace(c.Storage.Path)
	if b == storage.BackendSQLite && strings.HasSuffix(path, ".json") {
		path = strings.TrimSuffix(path, ".json") + ".db"
	}
	return path
}

func (c Config) SaveMode() todo.SaveMode {
	m, _ := todo.ParseSaveMode(c.Storage.SaveMode)
	return m
}

func (c Config) SaveDelay() (time.Duration, error) {
	raw := strings.TrimSpace(c.Storage.SaveDelay)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("config: invalid save delay %q", raw)
	}
	return d, nil
}

func (c Config) WeekStart() (time.Weekday, error) {
	return calendar.ParseWeekday(c.Calendar.WeekStart)
}

func (c Config) View() (calendar.Mode, error) {
	return calendar.ParseMode(c.Calendar.DefaultView)
}

// TimeZone resolves the calendar zone; empty means the local zone.
func (c Config) TimeZone() (*time.Location, error) {
	name := strings.TrimSpace(c.Calendar.Timezone)
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("config: invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// TodayOverride returns the pinned date, if any.
func (c Config) TodayOverride() (*model.Date, error) {
	raw := strings.TrimSpace(c.Today)
	if raw == "" {
		return nil, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
