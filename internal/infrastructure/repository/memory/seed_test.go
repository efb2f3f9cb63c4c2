package memory

import (
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/ledger"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/nation"
)

func testEntries(points *float64) []ledger.Entry {
	return []ledger.Entry{{
		ID:      "101",
		Name:    "Johannes Klaebo",
		Nation:  "Norway",
		Gender:  athlete.GenderMen,
		Season:  2026,
		Date:    time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		Ratings: athlete.Ratings{athlete.DimElo: 1800},
		Points:  points,
	}}
}

func TestSeedLedger(t *testing.T) {
	entries := SeedLedger()
	if len(entries) != len(seedAthletes)*4 {
		t.Fatalf("unexpected seed size: %d", len(entries))
	}
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			t.Fatalf("invalid seed entry %s: %v", e.Name, err)
		}
		if !e.HasPoints() || *e.Points < 0 || *e.Points > 100 {
			t.Fatalf("seed entry %s has unexpected points", e.Name)
		}
	}
	if _, err := ledger.NewSnapshot(entries, nation.Default()); err != nil {
		t.Fatalf("seed ledger does not build a snapshot: %v", err)
	}
}
