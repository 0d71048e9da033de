package preview

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/doccmerge/internal/merge"
)

// buildStatus tracks the latest merge result for the status endpoint.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	hasGoodBuild bool // true if at least one successful merge exists
	lastReport   *merge.Report
	builds       int
	updated      time.Time
}

func (bs *buildStatus) record(report *merge.Report, err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.builds++
	bs.updated = time.Now()
	bs.lastError = err
	if report != nil {
		bs.lastReport = report
	}
	if err == nil {
		bs.hasGoodBuild = true
	}
}

func (bs *buildStatus) getStatus() (hasError bool, err error, hasGoodBuild bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastError != nil, bs.lastError, bs.hasGoodBuild
}

// StatusSnapshot is the JSON body of the status endpoint.
type StatusSnapshot struct {
	Builds       int       `json:"builds"`
	Updated      time.Time `json:"updated"`
	HasGoodBuild bool      `json:"has_good_build"`
	Error        string    `json:"error,omitempty"`
	RunID        string    `json:"run_id,omitempty"`
	Outcome      string    `json:"outcome,omitempty"`
	Modules      []string  `json:"modules,omitempty"`
	Skipped      []string  `json:"skipped,omitempty"`
}

func (bs *buildStatus) snapshot() StatusSnapshot {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	s := StatusSnapshot{Builds: bs.builds, Updated: bs.updated, HasGoodBuild: bs.hasGoodBuild}
	if bs.lastError != nil {
		s.Error = bs.lastError.Error()
	}
	if r := bs.lastReport; r != nil {
		s.RunID = r.RunID
		s.Outcome = string(r.Outcome)
		s.Modules = r.Built()
		s.Skipped = r.Skipped()
	}
	return s
}
