package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/logging"
)

const sampleLedger = "\ufeffSkier,Nation,Sex,Season,Date,ID,Age,Exp,Elo,Sprint_Elo,Sprint_C_Elo,Discipline,Technique,Points\n" +
	"Johannes Hoesflot Klaebo,Norway,M,2026,2025-12-01,101,29,210,1900,1950,NA,Sprint,F,100\n" +
	"Jessie Diggins,USA,L,,2025-11-29,201,34,300,1800,,,,,\n" +
	"Broken Row,Norway,M,2026,yesterday,102,1,1,1,1,1,,,\n"

func TestReadEntries(t *testing.T) {
	entries, err := ReadEntries(context.Background(), strings.NewReader(sampleLedger), logging.NewNop())
	require.NoError(t, err)
	require.Len(t, entries, 2, "malformed date row is skipped")

	klaebo := entries[0]
	assert.Equal(t, "101", klaebo.ID)
	assert.Equal(t, "Johannes Hoesflot Klaebo", klaebo.Name)
	assert.Equal(t, athlete.GenderMen, klaebo.Gender)
	assert.Equal(t, 2026, klaebo.Season)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), klaebo.Date)
	assert.Equal(t, 1950.0, klaebo.Ratings[athlete.DimSprintElo])
	_, hasClassic := klaebo.Ratings[athlete.DimSprintClassic]
	assert.False(t, hasClassic, "NA leaves the dimension absent")
	assert.Equal(t, race.DisciplineSprint, klaebo.Discipline)
	assert.Equal(t, race.TechniqueFreestyle, klaebo.Technique)
	require.NotNil(t, klaebo.Points)
	assert.Equal(t, 100.0, *klaebo.Points)

	diggins := entries[1]
	assert.Equal(t, athlete.GenderWomen, diggins.Gender)
	assert.Equal(t, 2026, diggins.Season, "season derived from date")
	assert.Nil(t, diggins.Points)
}

func TestReadEntries_RequiresIdentityColumns(t *testing.T) {
	_, err := ReadEntries(context.Background(), strings.NewReader("Nation,Elo\nNorway,1\n"), logging.NewNop())
	if err == nil {
		t.Fatalf("expected error for header without Skier/ID/Date")
	}
}

func TestLedgerRepository_ListEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	if err := os.WriteFile(path, []byte(sampleLedger), 0o600); err != nil {
		t.Fatalf("write ledger: %v", err)
	}

	entries, err := NewLedgerRepository(path, logging.NewNop()).ListEntries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = NewLedgerRepository(filepath.Join(t.TempDir(), "missing.csv"), logging.NewNop()).ListEntries(context.Background())
	assert.Error(t, err)
}

func TestSeasonOf(t *testing.T) {
	tests := []struct {
		date time.Time
		want int
	}{
		{time.Date(2025, 11, 29, 0, 0, 0, 0, time.UTC), 2026},
		{time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), 2026},
		{time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), 2027},
	}
	for _, tt := range tests {
		if got := SeasonOf(tt.date); got != tt.want {
			t.Fatalf("SeasonOf(%s) = %d, want %d", tt.date.Format("2006-01-02"), got, tt.want)
		}
	}
}
