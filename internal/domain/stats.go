package domain

// Stats aggregates counts over the query store.
type Stats struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Fail    int `json:"fail"`
	Pending int `json:"pending"`
	Cached  int `json:"cached"`
}

// Add folds one record into the counts.
func (s *Stats) Add(r QueryRecord) {
	s.Total++
	switch r.Status() {
	case StatusSuccess:
		s.Success++
	case StatusFail:
		s.Fail++
	default:
		s.Pending++
	}
	if r.Cached() {
		s.Cached++
	}
}

// HitRate is the share of cached records, as a percentage.
func (s Stats) HitRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Cached) / float64(s.Total) * 100
}
