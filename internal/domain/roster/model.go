package roster

import (
	"fmt"
	"math"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
)

// Probability is a participation probability in [0,1] or Unknown. Unknown is
// left for a downstream estimator and must never be read as 0.
type Probability struct {
	value float64
	known bool
}

var Unknown = Probability{}

func Known(v float64) Probability {
	if math.IsNaN(v) {
		return Unknown
	}
	return Probability{value: min(max(v, 0), 1), known: true}
}

var (
	Certain = Known(1)
	Never   = Known(0)
)

func (p Probability) Value() (float64, bool) {
	return p.value, p.known
}

func (p Probability) IsKnown() bool {
	return p.known
}

// IsKnownZero reports a confirmed non-start.
func (p Probability) IsKnownZero() bool {
	return p.known && p.value == 0
}

func (p Probability) String() string {
	if !p.known {
		return "unknown"
	}
	return fmt.Sprintf("%.2f", p.value)
}

// Provenance records which source put an athlete on the roster. Lower rank
// wins when sources disagree.
type Provenance string

const (
	ProvenanceStartlist      Provenance = "startlist"
	ProvenanceOverrideYes    Provenance = "override-yes"
	ProvenanceOverrideNo     Provenance = "override-no"
	ProvenanceLedgerFallback Provenance = "ledger-fallback"
	ProvenancePriceFeed      Provenance = "price-feed"
)

func (p Provenance) Rank() int {
	switch p {
	case ProvenanceStartlist:
		return 0
	case ProvenanceOverrideYes:
		return 1
	case ProvenanceOverrideNo:
		return 2
	case ProvenanceLedgerFallback:
		return 3
	case ProvenancePriceFeed:
		return 4
	default:
		return 5
	}
}

// Outranks reports whether p takes precedence over other.
func (p Provenance) Outranks(other Provenance) bool {
	return p.Rank() < other.Rank()
}

// Probability is the participation probability a source implies on its own.
func (p Provenance) Probability() Probability {
	switch p {
	case ProvenanceStartlist, ProvenanceOverrideYes:
		return Certain
	case ProvenanceOverrideNo:
		return Never
	default:
		return Unknown
	}
}

// Entry is one athlete on the roster of one race.
type Entry struct {
	Athlete      athlete.Athlete
	RaceIndex    int
	Price        float64
	HasPrice     bool
	Probability  Probability
	Provenance   Provenance
	Bib          string
	TeamLabel    string
	Quota        int
	IsHostNation bool
	Confidence   int
	Points       float64
}

func (e Entry) Key() string {
	return e.Athlete.ID
}

func (e Entry) Validate() error {
	if e.Athlete.ID == "" {
		return fmt.Errorf("roster entry athlete id is required")
	}
	if e.RaceIndex < 1 {
		return fmt.Errorf("roster entry %s: race index must be >= 1", e.Athlete.ID)
	}
	if v, ok := e.Probability.Value(); ok && (v < 0 || v > 1) {
		return fmt.Errorf("roster entry %s: probability %v out of range", e.Athlete.ID, v)
	}
	return nil
}
