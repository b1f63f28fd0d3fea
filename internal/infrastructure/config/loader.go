package config

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/qa/assets"
	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/pkg/filesystem"
	"github.com/doeshing/qa/internal/ports"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "QA_CONFIG"

// FileLoader loads YAML configuration from ~/.qa/config.yaml (overridable via QA_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Path returns the file Load reads.
func (l *FileLoader) Path() string {
	if l.overridePath != "" {
		return filesystem.ExpandPath(l.overridePath)
	}
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return filesystem.ExpandPath(custom)
	}
	return filepath.Join(filesystem.AppDir(), "config.yaml")
}

// Load implements ports.ConfigProvider. A missing file is created from the
// embedded defaults.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return domain.Config{}, errors.Wrapf(err, "read config %s", path)
		}
		if err := writeDefault(path); err != nil {
			return domain.Config{}, err
		}
		data = assets.DefaultConfigYAML
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	return expandPaths(hydrateDefaults(cfg)), nil
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return errors.Wrap(err, "create config dir")
	}
	if err := os.WriteFile(path, assets.DefaultConfigYAML, domain.SecureFilePermissions); err != nil {
		return errors.Wrapf(err, "write default config %s", path)
	}
	return nil
}

// DefaultConfig parses the embedded defaults.
func DefaultConfig() domain.Config {
	var cfg domain.Config
	if err := yaml.Unmarshal(assets.DefaultConfigYAML, &cfg); err != nil {
		panic(err)
	}
	return expandPaths(hydrateDefaults(cfg))
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = filepath.Join(filesystem.AppDir(), "queries")
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = domain.BackendFile
	}
	if cfg.Store.OutputLines == 0 {
		cfg.Store.OutputLines = domain.DefaultOutputLines
	}
	if cfg.Matching.SimilarityThreshold == 0 {
		cfg.Matching.SimilarityThreshold = domain.DefaultSimilarityThreshold
	}
	if cfg.Matching.RankMinScore == 0 {
		cfg.Matching.RankMinScore = domain.DefaultRankMinScore
	}
	if cfg.Housekeeping.CleanDays == 0 {
		cfg.Housekeeping.CleanDays = domain.DefaultCleanDays
	}
	if cfg.Rules.GlobalFile == "" {
		cfg.Rules.GlobalFile = filepath.Join(filesystem.AppDir(), "rules")
	}
	if cfg.Rules.ProjectFile == "" {
		cfg.Rules.ProjectFile = domain.DefaultProjectRulesFile
	}
	if cfg.Execution.Shell == "" {
		cfg.Execution.Shell = "auto"
	}
	if cfg.Execution.TimeoutSeconds == 0 {
		cfg.Execution.TimeoutSeconds = int(domain.DefaultCommandTimeout.Seconds())
	}
	if cfg.Replay.HistorySize == 0 {
		cfg.Replay.HistorySize = domain.DefaultReplayHistory
	}
	return cfg
}

// expandPaths resolves "~/" in user-level paths. The project rules file stays
// relative; it is looked up from the working directory upwards.
func expandPaths(cfg domain.Config) domain.Config {
	cfg.Store.Dir = filesystem.ExpandPath(cfg.Store.Dir)
	cfg.Rules.GlobalFile = filesystem.ExpandPath(cfg.Rules.GlobalFile)
	return cfg
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
