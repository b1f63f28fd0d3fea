package matching

import (
	"context"
	"sort"

	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/pkg/tokenize"
)

// Match is a similarity hit.
type Match struct {
	ID      int64
	Score   int
	Query   string
	Command string
}

// Ranked is one row of a similarity ranking.
type Ranked struct {
	Score int
	ID    int64
	Query string
}

// FindSimilar returns the highest-scoring successful record whose Jaccard
// score against query is at least threshold. Ties keep the first record
// encountered. There is no best-effort fallback below the threshold.
// Template records are left to FindTemplate since their commands still carry
// placeholders.
func (m *Matcher) FindSimilar(ctx context.Context, query string, threshold int) (Match, bool, error) {
	tokens := tokenize.Tokenize(query)
	if len(tokens) == 0 {
		return Match{}, false, nil
	}
	var best Match
	found := false
	err := m.scan(ctx, func(rec domain.QueryRecord) {
		if !rec.Reusable() || rec.IsTemplate() {
			return
		}
		score := tokenize.Jaccard(tokens, tokenize.Tokenize(rec.Query))
		if !found || score > best.Score {
			best = Match{ID: rec.ID, Score: score, Query: rec.Query, Command: rec.Command}
			found = true
		}
	})
	if err != nil {
		return Match{}, false, err
	}
	if !found || best.Score < threshold || best.Score == 0 {
		return Match{}, false, nil
	}
	m.debug("similar query found", map[string]interface{}{"id": best.ID, "score": best.Score})
	return best, true, nil
}

// RankSimilar lists successful records scoring at least minScore, best first
// and newest first among equal scores. It is for exploration only.
func (m *Matcher) RankSimilar(ctx context.Context, query string, minScore int) ([]Ranked, error) {
	tokens := tokenize.Tokenize(query)
	var out []Ranked
	err := m.scan(ctx, func(rec domain.QueryRecord) {
		if !rec.Reusable() {
			return
		}
		score := tokenize.Jaccard(tokens, tokenize.Tokenize(rec.Query))
		if score == 0 || score < minScore {
			return
		}
		out = append(out, Ranked{Score: score, ID: rec.ID, Query: rec.Query})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
