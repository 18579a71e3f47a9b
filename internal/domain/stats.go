package domain

import "time"

// RunStats summarises one pipeline run.
type RunStats struct {
	StartedAt   time.Time
	Duration    time.Duration
	Communities []CommunityStats
}

type CommunityStats struct {
	Community  string
	Candidates int
	Duplicates int
	Published  int
	Failed     int
}

func (s *RunStats) Published() int {
	n := 0
	for _, c := range s.Communities {
		n += c.Published
	}
	return n
}
