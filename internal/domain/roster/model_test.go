package roster

import (
	"math"
	"testing"
)

func TestProbability(t *testing.T) {
	t.Parallel()

	if _, ok := Unknown.Value(); ok {
		t.Fatalf("Unknown must not carry a value")
	}
	if Unknown.IsKnownZero() {
		t.Fatalf("Unknown must not be treated as 0")
	}
	if v, ok := Known(1.7).Value(); !ok || v != 1 {
		t.Fatalf("Known(1.7) = %v %v, want clamped 1", v, ok)
	}
	if v, ok := Known(-0.2).Value(); !ok || v != 0 {
		t.Fatalf("Known(-0.2) = %v %v, want clamped 0", v, ok)
	}
	if Known(math.NaN()).IsKnown() {
		t.Fatalf("NaN must map to Unknown")
	}
	if !Never.IsKnownZero() {
		t.Fatalf("Never must be a known zero")
	}
	if Unknown.String() != "unknown" || Certain.String() != "1.00" {
		t.Fatalf("unexpected string forms %q %q", Unknown.String(), Certain.String())
	}
}

func TestProvenancePrecedence(t *testing.T) {
	t.Parallel()

	order := []Provenance{
		ProvenanceStartlist,
		ProvenanceOverrideYes,
		ProvenanceOverrideNo,
		ProvenanceLedgerFallback,
		ProvenancePriceFeed,
	}
	for i := 0; i < len(order)-1; i++ {
		if !order[i].Outranks(order[i+1]) {
			t.Fatalf("%s should outrank %s", order[i], order[i+1])
		}
		if order[i+1].Outranks(order[i]) {
			t.Fatalf("%s should not outrank %s", order[i+1], order[i])
		}
	}

	if p := ProvenanceOverrideNo.Probability(); !p.IsKnownZero() {
		t.Fatalf("override-no should imply 0, got %s", p)
	}
	if p := ProvenanceLedgerFallback.Probability(); p.IsKnown() {
		t.Fatalf("ledger fallback should be unknown, got %s", p)
	}
}

func TestOverride_ProvenanceFor(t *testing.T) {
	t.Parallel()

	o := Override{Nation: "NOR", Name: "Therese Johaug", Yes: []int{1, 3}, No: []int{2, 3}}
	tests := []struct {
		race int
		want Provenance
		ok   bool
	}{
		{race: 1, want: ProvenanceOverrideYes, ok: true},
		{race: 2, want: ProvenanceOverrideNo, ok: true},
		{race: 3, want: ProvenanceOverrideYes, ok: true},
		{race: 4, ok: false},
	}
	for _, tc := range tests {
		got, ok := o.ProvenanceFor(tc.race)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("race %d: got %q ok=%v, want %q ok=%v", tc.race, got, ok, tc.want, tc.ok)
		}
	}

	if got := len(Overrides{o, {Name: "Nobody"}}.ForRace(2)); got != 1 {
		t.Fatalf("ForRace kept %d overrides, want 1", got)
	}
}
