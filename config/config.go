package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/vadiminshakov/bank/internal/storage/statefile"
	"github.com/vadiminshakov/bank/internal/storage/transfers"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	defaultIDLength    = 8
	defaultLogLevel    = "warn"
	defaultSaveTimeout = 5 * time.Second
	maxIDLength        = 18
)

type Config struct {
	DataFile    string
	JournalDir  string
	IDLength    int
	LogLevel    zap.AtomicLevel
	Accessible  bool
	SaveTimeout time.Duration
}

type ConfigTmp struct {
	DataFile    string        `yaml:"data_file,omitempty"`
	JournalDir  string        `yaml:"journal_dir,omitempty"`
	IDLengthStr string        `yaml:"id_length,omitempty"`
	LogLevel    string        `yaml:"log_level,omitempty"`
	Accessible  bool          `yaml:"accessible,omitempty"`
	SaveTimeout time.Duration `yaml:"save_timeout,omitempty"`
}

// Get builds the configuration from a yaml file (--config) or from individual flags.
func Get(args []string) (Config, error) {
	fs := flag.NewFlagSet("bank", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to yaml config")
	dataFile := fs.String("data", statefile.DefaultPath, "path to the accounts state file")
	journalDir := fs.String("journal", transfers.DefaultDir, "directory of the transfer journal")
	idLength := fs.String("idlength", strconv.Itoa(defaultIDLength), "number of digits in account ids")
	logLevel := fs.String("loglevel", defaultLogLevel, "log level: debug, info, warn, error")
	accessible := fs.Bool("accessible", false, "plain prompts for screen readers and dumb terminals")
	saveTimeout := fs.Duration("savetimeout", defaultSaveTimeout, "timeout of a single state file write")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		return getYaml(*configPath)
	}

	return build(ConfigTmp{
		DataFile:    *dataFile,
		JournalDir:  *journalDir,
		IDLengthStr: *idLength,
		LogLevel:    *logLevel,
		Accessible:  *accessible,
		SaveTimeout: *saveTimeout,
	})
}

func getYaml(path string) (Config, error) {
	var c ConfigTmp

	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(f, &c); err != nil {
		return Config{}, fmt.Errorf("incorrect yaml config %s: %w", path, err)
	}

	return build(c)
}

func build(c ConfigTmp) (Config, error) {
	cfg := Config{
		DataFile:    c.DataFile,
		JournalDir:  c.JournalDir,
		Accessible:  c.Accessible,
		SaveTimeout: c.SaveTimeout,
	}

	if cfg.DataFile == "" {
		cfg.DataFile = statefile.DefaultPath
	}
	if cfg.JournalDir == "" {
		cfg.JournalDir = transfers.DefaultDir
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = defaultSaveTimeout
	}

	if c.IDLengthStr == "" {
		cfg.IDLength = defaultIDLength
	} else {
		idLength, err := strconv.Atoi(c.IDLengthStr)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'id_length' param (must be an integer), error: %w", err)
		}
		if idLength < 1 || idLength > maxIDLength {
			return Config{}, fmt.Errorf("incorrect 'id_length' param: %d, must be between 1 and %d", idLength, maxIDLength)
		}
		cfg.IDLength = idLength
	}

	levelStr := c.LogLevel
	if levelStr == "" {
		levelStr = defaultLogLevel
	}
	level, err := zap.ParseAtomicLevel(levelStr)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'log_level' param: %s, error: %w", levelStr, err)
	}
	cfg.LogLevel = level

	return cfg, nil
}
