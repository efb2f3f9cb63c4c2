package roster

import "slices"

// Override is one manually curated athlete: the races they are confirmed to
// start (Yes) and confirmed to skip (No).
type Override struct {
	Nation string
	Name   string
	Yes    []int
	No     []int
}

// ProvenanceFor returns the override's claim for a race, if any. A race in
// both lists counts as confirmed.
func (o Override) ProvenanceFor(raceIndex int) (Provenance, bool) {
	if slices.Contains(o.Yes, raceIndex) {
		return ProvenanceOverrideYes, true
	}
	if slices.Contains(o.No, raceIndex) {
		return ProvenanceOverrideNo, true
	}
	return "", false
}

type Overrides []Override

// ForRace keeps only overrides that say something about raceIndex.
func (os Overrides) ForRace(raceIndex int) Overrides {
	out := make(Overrides, 0, len(os))
	for _, o := range os {
		if _, ok := o.ProvenanceFor(raceIndex); ok {
			out = append(out, o)
		}
	}
	return out
}
