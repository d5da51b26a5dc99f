package sport

import (
	"encoding/json"
	"strings"
)

// Ranking is a participant skill level.
type Ranking int

// Known rankings. Unranked is the fallback.
const (
	Unranked Ranking = iota
	Beginner
	Intermediate
	Advanced
	Pro
)

var rankings = [...]struct {
	name  string
	color string
}{
	Unranked:     {"unranked", "#BDBDBD"},
	Beginner:     {"beginner", "#66BB6A"},
	Intermediate: {"intermediate", "#42A5F5"},
	Advanced:     {"advanced", "#FFA726"},
	Pro:          {"pro", "#EF5350"},
}

// Rankings returns every ranking except the fallback, lowest first.
func Rankings() []Ranking {
	return []Ranking{Beginner, Intermediate, Advanced, Pro}
}

// ParseRanking maps a name to a Ranking. Unknown names return Unranked.
func ParseRanking(name string) Ranking {
	key := strings.ToLower(strings.TrimSpace(name))
	for r, info := range rankings {
		if info.name == key {
			return Ranking(r)
		}
	}
	return Unranked
}

func (r Ranking) valid() bool {
	return r >= 0 && int(r) < len(rankings)
}

func (r Ranking) String() string {
	if !r.valid() {
		return rankings[Unranked].name
	}
	return rankings[r].name
}

// Color returns the badge color for the ranking.
func (r Ranking) Color() string {
	if !r.valid() {
		return rankings[Unranked].color
	}
	return rankings[r].color
}

// MarshalJSON encodes the ranking by name.
func (r Ranking) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a ranking name; unknown names become Unranked.
func (r *Ranking) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*r = ParseRanking(name)
	return nil
}
