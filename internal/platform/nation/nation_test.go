package nation

import "testing"

func TestTable_LookupBothDirections(t *testing.T) {
	table := Default()

	tests := []struct {
		in       string
		wantCode string
		wantName string
	}{
		{in: "NOR", wantCode: "NOR", wantName: "Norway"},
		{in: "nor", wantCode: "NOR", wantName: "Norway"},
		{in: "Norway", wantCode: "NOR", wantName: "Norway"},
		{in: " czech  republic ", wantCode: "CZE", wantName: "Czechia"},
		{in: "United States", wantCode: "USA", wantName: "USA"},
	}
	for _, tt := range tests {
		n, ok := table.Lookup(tt.in)
		if !ok {
			t.Fatalf("lookup %q: not found", tt.in)
		}
		if n.Code != tt.wantCode || n.Name != tt.wantName {
			t.Fatalf("lookup %q = %+v, want %s/%s", tt.in, n, tt.wantCode, tt.wantName)
		}
	}
}

func TestTable_CanonicalUnknown(t *testing.T) {
	table := Default()
	if got := table.Canonical("atlantis"); got != "ATLANTIS" {
		t.Fatalf("unexpected canonical for unknown nation: %q", got)
	}
	if got := table.DisplayName("SWE"); got != "Sweden" {
		t.Fatalf("unexpected display name: %q", got)
	}
	if _, ok := table.Lookup(""); ok {
		t.Fatalf("empty lookup should miss")
	}
}

func TestNewTable_FirstEntryWins(t *testing.T) {
	table := NewTable([]Nation{
		{Code: "NOR", Name: "Norway"},
		{Code: "nor", Name: "Norge"},
	})
	name, ok := table.NameOf("NOR")
	if !ok || name != "Norway" {
		t.Fatalf("expected first entry to win, got %q", name)
	}
	if code, ok := table.CodeOf("Norge"); !ok || code != "NOR" {
		t.Fatalf("expected alias via second entry name, got %q ok=%v", code, ok)
	}
	if len(table.Codes()) != 1 {
		t.Fatalf("expected one code, got %v", table.Codes())
	}
}
