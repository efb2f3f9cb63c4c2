package quota

import (
	"fmt"
	"strings"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
)

// DefaultHostBonus is the extra start places a World Cup host usually gets.
const DefaultHostBonus = 5

// Key identifies one base quota. Team disciplines share the quota of their
// individual category.
type Key struct {
	Nation     string
	Discipline race.Discipline
	Gender     athlete.Gender
}

func NewKey(nationCode string, discipline race.Discipline, gender athlete.Gender) Key {
	return Key{
		Nation:     strings.ToUpper(strings.TrimSpace(nationCode)),
		Discipline: discipline.Category(),
		Gender:     gender,
	}
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Nation, k.Discipline, k.Gender)
}

// Allocator answers how many entrants a nation may plausibly start. It is
// advisory: rosters are never truncated to it.
type Allocator struct {
	base      map[Key]int
	hostBonus int
}

// NewAllocator copies base and clamps negative values, so the host bonus can
// only ever add capacity.
func NewAllocator(base map[Key]int, hostBonus int) *Allocator {
	a := &Allocator{
		base:      make(map[Key]int, len(base)),
		hostBonus: max(hostBonus, 0),
	}
	for k, v := range base {
		a.base[NewKey(k.Nation, k.Discipline, k.Gender)] = max(v, 0)
	}
	return a
}

func (a *Allocator) HostBonus() int {
	if a == nil {
		return 0
	}
	return a.hostBonus
}

// Base returns the static quota; unknown nations have none.
func (a *Allocator) Base(nationCode string, discipline race.Discipline, gender athlete.Gender) int {
	if a == nil {
		return 0
	}
	return a.base[NewKey(nationCode, discipline, gender)]
}

func (a *Allocator) Quota(nationCode string, discipline race.Discipline, gender athlete.Gender, isHost bool) int {
	q := a.Base(nationCode, discipline, gender)
	if isHost {
		q += a.HostBonus()
	}
	return q
}

// ForRace is Quota with the host flag derived from the race.
func (a *Allocator) ForRace(nationCode string, r race.Race) (int, bool) {
	isHost := r.IsHost(nationCode)
	return a.Quota(nationCode, r.Discipline, r.Gender, isHost), isHost
}
