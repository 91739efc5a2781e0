// Package trajectory reads and writes sequences of system snapshots
// in a flat text format, one record per frame:
//
//	<particle count>
//	step=<n> columns=<fields> ndim=<d> [cell=<sides>]
//	<one line per particle, declared fields in order>
//
// Floats are serialized with strconv in 'g' format at full precision,
// so positions round-trip exactly.
package trajectory

import "github.com/san-kum/mdkit/internal/system"

// DefaultFields is the minimal per-particle column set.
var DefaultFields = []string{"species", "position"}

// A Callback transforms a decoded system before it is handed back to
// the caller, e.g. to coerce positions to lattice sites or drop
// fields that have no meaning for a given model. Callbacks run in
// registration order.
type Callback func(*system.System)

// columnWidth is the number of columns a field occupies for a given
// dimensionality.
func columnWidth(field string, ndim int) int {
	switch field {
	case "position", "velocity":
		return ndim
	default:
		return 1
	}
}

func knownField(field string) bool {
	switch field {
	case "species", "position", "velocity", "mass", "radius":
		return true
	}
	return false
}
