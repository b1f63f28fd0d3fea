package config

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/doeshing/qa/internal/domain"
)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if err := validateStore(cfg.Store); err != nil {
		return err
	}
	if err := validateMatching(cfg.Matching); err != nil {
		return err
	}
	if cfg.Housekeeping.CleanDays < 0 {
		return errors.Wrap(domain.ErrInvalidArgument, "housekeeping.clean_days must be >= 0")
	}
	if err := validateRules(cfg.Rules); err != nil {
		return err
	}
	if cfg.Execution.TimeoutSeconds < 0 {
		return errors.Wrap(domain.ErrInvalidArgument, "execution.timeout must be >= 0")
	}
	if cfg.Replay.HistorySize < 0 {
		return errors.Wrap(domain.ErrInvalidArgument, "replay.history_size must be >= 0")
	}
	return nil
}

func validateStore(store domain.StoreSettings) error {
	if strings.TrimSpace(store.Dir) == "" {
		return errors.Wrap(domain.ErrInvalidArgument, "store.dir must be set")
	}
	switch store.Backend {
	case "", domain.BackendFile, domain.BackendSQLite:
	default:
		return errors.Wrapf(domain.ErrInvalidArgument, "store.backend must be %s|%s, got %s",
			domain.BackendFile, domain.BackendSQLite, store.Backend)
	}
	if store.OutputLines < 0 {
		return errors.Wrap(domain.ErrInvalidArgument, "store.output_lines must be >= 0")
	}
	return nil
}

func validateMatching(m domain.MatchingSettings) error {
	if m.SimilarityThreshold < 0 || m.SimilarityThreshold > 100 {
		return errors.Wrapf(domain.ErrInvalidArgument, "matching.similarity_threshold must be 0-100, got %d", m.SimilarityThreshold)
	}
	if m.RankMinScore < 0 || m.RankMinScore > 100 {
		return errors.Wrapf(domain.ErrInvalidArgument, "matching.rank_min_score must be 0-100, got %d", m.RankMinScore)
	}
	return nil
}

func validateRules(r domain.RulesSettings) error {
	if strings.TrimSpace(r.GlobalFile) == "" {
		return errors.Wrap(domain.ErrInvalidArgument, "rules.global_file must be set")
	}
	if strings.TrimSpace(r.ProjectFile) == "" {
		return errors.Wrap(domain.ErrInvalidArgument, "rules.project_file must be set")
	}
	return nil
}
