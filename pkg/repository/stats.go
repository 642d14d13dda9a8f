package repository

// Outcome names the branch of the insertion decision tree that resolved a
// batch.
type Outcome string

const (
	OutcomeSingletonFound Outcome = "singleton_found"
	OutcomeSingletonNew   Outcome = "singleton_new"
	OutcomeExactFound     Outcome = "exact_found"
	OutcomeProbeFound     Outcome = "probe_found"
	OutcomeCollapsed      Outcome = "collapsed"
	OutcomeMinimizedFound Outcome = "minimized_found"
	OutcomePublished      Outcome = "published"
)

// Observer receives insertion events, e.g. to export metrics. Calls happen
// synchronously inside AddSCC.
type Observer interface {
	Decision(outcome Outcome)
	Minimized(combined int, blocks int)
	Sizes(ids int, components int, vertices int)
}

// Stats is a snapshot of insertion counters. It is diagnostic only;
// nothing in the repository depends on it.
type Stats struct {
	Insertions int

	SingletonFound int
	SingletonNew   int

	ExactFound  int
	ExactMissed int

	// CandidateGathers counts insertions that found at least one adjacent
	// component, Candidates the components found in total.
	CandidateGathers int
	Candidates       int

	ProbeAttempts int
	ProbeFound    int

	Minimizations  int
	Collapsed      int
	MinimizedFound int
	Published      int

	IDs        int
	Components int
	Vertices   int
	Keys       int
}

func (s *Stats) record(o Outcome) {
	switch o {
	case OutcomeSingletonFound:
		s.SingletonFound++
	case OutcomeSingletonNew:
		s.SingletonNew++
		s.Published++
	case OutcomeExactFound:
		s.ExactFound++
	case OutcomeProbeFound:
		s.ProbeFound++
	case OutcomeCollapsed:
		s.Collapsed++
	case OutcomeMinimizedFound:
		s.MinimizedFound++
	case OutcomePublished:
		s.Published++
	}
}
