package cpu

import (
	"fmt"
	"strings"
)

// Quirks selects deviations from the canonical instruction semantics that
// some legacy programs depend on. The zero value is canonical.
type Quirks struct {
	// ShiftUsesVY makes SHR/SHL shift Vy into Vx instead of shifting Vx.
	ShiftUsesVY bool
	// LoadStoreExclusive makes Fx55/Fx65 transfer V0..V(x-1), leaving Vx out.
	LoadStoreExclusive bool
	// LoadStoreIncrementsI leaves I pointing past the transferred block.
	LoadStoreIncrementsI bool
}

// ParseQuirks parses a comma separated list of quirk names:
// "shift", "exclusive" and "inci".
func ParseQuirks(s string) (Quirks, error) {
	var q Quirks
	for _, name := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
		case "shift":
			q.ShiftUsesVY = true
		case "exclusive":
			q.LoadStoreExclusive = true
		case "inci":
			q.LoadStoreIncrementsI = true
		default:
			return q, fmt.Errorf("unknown quirk %q", name)
		}
	}
	return q, nil
}

func (q Quirks) String() string {
	var names []string
	if q.ShiftUsesVY {
		names = append(names, "shift")
	}
	if q.LoadStoreExclusive {
		names = append(names, "exclusive")
	}
	if q.LoadStoreIncrementsI {
		names = append(names, "inci")
	}
	return strings.Join(names, ",")
}
