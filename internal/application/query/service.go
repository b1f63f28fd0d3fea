// Package query pushes a new natural-language query through the cache:
// a deterministic scan spec first, then template and similarity reuse, and
// only then the external generator.
package query

import (
	"context"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/doeshing/qa/internal/application/matching"
	"github.com/doeshing/qa/internal/application/replay"
	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/ports"
)

// Service orchestrates the query lifecycle end-to-end.
type Service struct {
	Store     ports.QueryStore
	Matcher   *matching.Matcher
	Rules     ports.RuleSource
	Generator ports.Generator
	ScanSpec  ports.ScanSpecMatcher
	Executor  ports.CommandExecutor
	Logger    ports.Logger
	Threshold int
}

// Resolve records query as a new pending record and finds a command for it.
// Reused commands are linked back to their source with cached=true and
// prev=<id>. With no match and no generator configured it returns
// domain.ErrNoGenerator; the pending record is kept.
func (s *Service) Resolve(ctx context.Context, text string) (domain.Resolution, error) {
	if s.Store == nil || s.Matcher == nil || s.Logger == nil {
		return domain.Resolution{}, errors.New("query.Service dependencies not satisfied")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Resolution{}, errors.Wrap(domain.ErrInvalidArgument, "query is empty")
	}

	id, err := s.Store.Create(ctx, text)
	if err != nil {
		return domain.Resolution{}, errors.Wrap(err, "create record")
	}
	res := domain.Resolution{ID: id}

	if s.ScanSpec != nil {
		if command, ok := s.ScanSpec.Match(ctx, text); ok {
			res.Command, res.Source = command, domain.SourceScanSpec
			return res, s.Store.SetCommand(ctx, id, command)
		}
	}

	tm, ok, err := s.Matcher.FindTemplate(ctx, text)
	if err != nil {
		return res, errors.Wrap(err, "template lookup")
	}
	if ok {
		command, missing := replay.Substitute(tm.Command, tm.Bindings)
		if len(missing) > 0 {
			s.Logger.Warn("template command has unbound placeholders", map[string]interface{}{
				"template": tm.ID,
				"missing":  strings.Join(missing, ","),
			})
		}
		res.Command, res.Source, res.PrevID, res.Bindings = command, domain.SourceTemplate, tm.ID, tm.Bindings
		return res, s.reuse(ctx, id, command, tm.ID,
			domain.MetaPair{Key: domain.MetaTemplate, Value: strconv.FormatInt(tm.ID, 10)})
	}

	sm, ok, err := s.Matcher.FindSimilar(ctx, text, s.threshold())
	if err != nil {
		return res, errors.Wrap(err, "similarity lookup")
	}
	if ok {
		res.Command, res.Source, res.PrevID, res.Score = sm.Command, domain.SourceSimilar, sm.ID, sm.Score
		return res, s.reuse(ctx, id, sm.Command, sm.ID,
			domain.MetaPair{Key: domain.MetaScore, Value: strconv.Itoa(sm.Score)})
	}

	if s.Generator == nil {
		return res, errors.Wrapf(domain.ErrNoGenerator, "no cached command for record %d", id)
	}
	command, err := s.generate(ctx, text)
	if err != nil {
		if metaErr := s.Store.SetMeta(ctx, id, domain.MetaPair{Key: domain.MetaStatus, Value: string(domain.StatusFail)}); metaErr != nil {
			s.Logger.Error("mark failed generation", metaErr, map[string]interface{}{"id": id})
		}
		return res, err
	}
	res.Command, res.Source = command, domain.SourceGenerated
	return res, s.Store.SetCommand(ctx, id, command)
}

// Run executes the command stored on id, saves the result and settles the
// record status from the exit code.
func (s *Service) Run(ctx context.Context, id int64) (domain.ExecutionResult, error) {
	if s.Store == nil || s.Executor == nil {
		return domain.ExecutionResult{}, errors.New("query.Service dependencies not satisfied")
	}
	rec, ok, err := s.Store.Get(ctx, id)
	if err != nil {
		return domain.ExecutionResult{}, errors.Wrapf(err, "load record %d", id)
	}
	if !ok || rec.Command == "" {
		return domain.ExecutionResult{}, errors.Wrapf(domain.ErrNotFound, "no command for record %d", id)
	}

	result, err := s.Executor.Execute(ctx, rec.Command)
	if err != nil {
		return result, errors.Wrapf(err, "execute record %d", id)
	}
	if err := s.Store.SetResult(ctx, id, result.ExitCode, result.Output); err != nil {
		return result, errors.Wrapf(err, "save result for %d", id)
	}
	if !rec.Status().Terminal() {
		status := replay.StatusFor(result.ExitCode)
		if err := s.Store.SetMeta(ctx, id, domain.MetaPair{Key: domain.MetaStatus, Value: string(status)}); err != nil {
			return result, errors.Wrapf(err, "set status for %d", id)
		}
	}
	s.Logger.Info("executed", map[string]interface{}{
		"id":          id,
		"exit":        result.ExitCode,
		"duration_ms": result.DurationMS,
	})
	return result, nil
}

func (s *Service) reuse(ctx context.Context, id int64, command string, prev int64, extra domain.MetaPair) error {
	if err := s.Store.SetCommand(ctx, id, command); err != nil {
		return errors.Wrapf(err, "save command for %d", id)
	}
	err := s.Store.SetMeta(ctx, id,
		domain.MetaPair{Key: domain.MetaCached, Value: "true"},
		domain.MetaPair{Key: domain.MetaPrev, Value: strconv.FormatInt(prev, 10)},
		extra,
	)
	if err != nil {
		return errors.Wrapf(err, "link record %d to %d", id, prev)
	}
	s.Logger.Debug("reused command", map[string]interface{}{"id": id, "prev": prev, extra.Key: extra.Value})
	return nil
}

func (s *Service) generate(ctx context.Context, text string) (string, error) {
	var rules domain.RuleSet
	if s.Rules != nil {
		loaded, err := s.Rules.All(ctx)
		if err != nil {
			s.Logger.Warn("rules unavailable, generating without them", map[string]interface{}{"error": err.Error()})
		} else {
			rules = loaded
		}
	}
	s.Logger.Info("calling generator", map[string]interface{}{"generator": s.Generator.Name()})
	command, err := s.Generator.Generate(ctx, ports.GenerateRequest{Query: text, Rules: rules})
	if err != nil {
		return "", errors.Wrap(err, "generate")
	}
	command = strings.TrimSpace(command)
	if command == "" {
		return "", errors.New("generator returned an empty command")
	}
	return command, nil
}

func (s *Service) threshold() int {
	if s.Threshold > 0 {
		return s.Threshold
	}
	return domain.DefaultSimilarityThreshold
}
