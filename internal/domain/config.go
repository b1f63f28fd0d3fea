package domain

// Config mirrors ~/.qa/config.yaml.
type Config struct {
	ConfigFormatVersion string               `yaml:"config_format_version"`
	Store               StoreSettings        `yaml:"store"`
	Matching            MatchingSettings     `yaml:"matching"`
	Housekeeping        HousekeepingSettings `yaml:"housekeeping"`
	Rules               RulesSettings        `yaml:"rules"`
	Generator           GeneratorSettings    `yaml:"generator"`
	Execution           ExecutionSettings    `yaml:"execution"`
	Replay              ReplaySettings       `yaml:"replay"`
}

// StoreSettings selects and locates the record store.
type StoreSettings struct {
	Dir         string `yaml:"dir"`
	Backend     string `yaml:"backend"`
	OutputLines int    `yaml:"output_lines"`
}

// MatchingSettings holds the similarity gates.
type MatchingSettings struct {
	SimilarityThreshold int `yaml:"similarity_threshold"`
	RankMinScore        int `yaml:"rank_min_score"`
}

// HousekeepingSettings configures eviction.
type HousekeepingSettings struct {
	CleanDays int `yaml:"clean_days"`
}

// RulesSettings locates the two rule tiers.
type RulesSettings struct {
	GlobalFile  string `yaml:"global_file"`
	ProjectFile string `yaml:"project_file"`
}

// GeneratorSettings describes the external command generator. The query
// prompt is written to the command's stdin.
type GeneratorSettings struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// ExecutionSettings controls how commands run.
type ExecutionSettings struct {
	Shell          string `yaml:"shell"`
	TimeoutSeconds int    `yaml:"timeout"`
}

// ReplaySettings bounds the per-record replay history kept in meta.
type ReplaySettings struct {
	HistorySize int `yaml:"history_size"`
}

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)
