// Package sport defines the sports and skill rankings known to Huddle and
// their display styles. Unknown names parse to a designated fallback variant
// so lookups never fail.
package sport

import (
	"encoding/json"
	"strings"
)

// Sport is a sport an event can be organised for.
type Sport int

// Known sports. Other is the fallback for names the client does not know.
const (
	Other Sport = iota
	Football
	Basketball
	Tennis
	Volleyball
	Running
	Cycling
	Padel
	Badminton
)

// Style is the display style of a variant.
type Style struct {
	Icon  string
	Color string
}

type sportInfo struct {
	name  string
	style Style
}

// sports is indexed by Sport; TestSportsTableComplete keeps it in step with the constants.
var sports = [...]sportInfo{
	Other:      {"other", Style{Icon: "trophy", Color: "#9E9E9E"}},
	Football:   {"football", Style{Icon: "soccer-ball", Color: "#2E7D32"}},
	Basketball: {"basketball", Style{Icon: "basketball", Color: "#EF6C00"}},
	Tennis:     {"tennis", Style{Icon: "tennis-ball", Color: "#C0CA33"}},
	Volleyball: {"volleyball", Style{Icon: "volleyball", Color: "#1565C0"}},
	Running:    {"running", Style{Icon: "run", Color: "#AD1457"}},
	Cycling:    {"cycling", Style{Icon: "bike", Color: "#00838F"}},
	Padel:      {"padel", Style{Icon: "racket", Color: "#6A1B9A"}},
	Badminton:  {"badminton", Style{Icon: "shuttlecock", Color: "#F9A825"}},
}

// aliases maps alternative spellings sent by older backends.
var aliases = map[string]Sport{
	"soccer":     Football,
	"futbol":     Football,
	"basket":     Basketball,
	"volley":     Volleyball,
	"run":        Running,
	"bike":       Cycling,
	"bicycle":    Cycling,
	"pádel":      Padel,
	"shuttle":    Badminton,
	"badmington": Badminton,
}

// All returns every known sport except the fallback.
func All() []Sport {
	out := make([]Sport, 0, len(sports)-1)
	for s := range sports {
		if Sport(s) != Other {
			out = append(out, Sport(s))
		}
	}
	return out
}

// Parse maps a name to a Sport, case-insensitively. Unknown names return Other.
func Parse(name string) Sport {
	key := strings.ToLower(strings.TrimSpace(name))
	for s, info := range sports {
		if info.name == key {
			return Sport(s)
		}
	}
	if s, ok := aliases[key]; ok {
		return s
	}
	return Other
}

func (s Sport) valid() bool {
	return s >= 0 && int(s) < len(sports)
}

// String returns the wire name of the sport.
func (s Sport) String() string {
	if !s.valid() {
		return sports[Other].name
	}
	return sports[s].name
}

// Style returns the icon and color for the sport.
func (s Sport) Style() Style {
	if !s.valid() {
		return sports[Other].style
	}
	return sports[s].style
}

// MarshalJSON encodes the sport by name.
func (s Sport) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a sport name; unknown names become Other.
func (s *Sport) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*s = Parse(name)
	return nil
}
