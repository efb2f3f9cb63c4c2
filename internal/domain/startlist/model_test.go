package startlist

import (
	"testing"
	"time"
)

func TestProfile_AgeAt(t *testing.T) {
	t.Parallel()

	p := Profile{ID: "3425", BirthDate: time.Date(1996, 10, 26, 0, 0, 0, 0, time.UTC)}
	tests := []struct {
		date time.Time
		want float64
	}{
		{date: time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC), want: 29},
		{date: time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC), want: 30},
		{date: time.Date(2027, 1, 3, 0, 0, 0, 0, time.UTC), want: 30},
	}
	for _, tc := range tests {
		if got := p.AgeAt(tc.date); got != tc.want {
			t.Fatalf("AgeAt(%s) = %v, want %v", tc.date.Format(time.DateOnly), got, tc.want)
		}
	}
	if got := (Profile{}).AgeAt(time.Now()); got != 0 {
		t.Fatalf("missing birth date should yield 0, got %v", got)
	}
}

func TestRow_IsEmpty(t *testing.T) {
	t.Parallel()

	if !(Row{Nation: "NOR", Bib: "1"}).IsEmpty() {
		t.Fatalf("row without name or team label should be empty")
	}
	if (Row{TeamLabel: "Norway I", Bib: "1-1"}).IsEmpty() {
		t.Fatalf("team row should not be empty")
	}
}
