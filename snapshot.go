package darkroom

// Snapshot captures every editable parameter at one point in time.
// Snapshots are plain values; compare them with ==.
type Snapshot struct {
	Geometry Geometry
	Tone     Tone

	// FilterID names the active lookup table; empty means no filter.
	FilterID string
}

// DefaultSnapshot is the state of a freshly opened image.
func DefaultSnapshot() Snapshot {
	return Snapshot{Geometry: IdentityGeometry(), Tone: NeutralTone()}
}
