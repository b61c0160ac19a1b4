package weather

import "fmt"

// Snapshot is the latest weather summary received from the primary device.
// A snapshot is replaced wholesale; fields are never merged.
type Snapshot struct {
	High        float64
	Low         float64
	ConditionID int
	Icon        []byte // nil when the icon asset could not be resolved
}

// HasIcon reports whether icon bytes were resolved.
func (s Snapshot) HasIcon() bool {
	return len(s.Icon) > 0
}

// Summary renders the temperature text drawn on the face.
func (s Snapshot) Summary() string {
	return fmt.Sprintf("%.0f° %.0f°", s.High, s.Low)
}

// Clone returns a copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Icon != nil {
		out.Icon = append([]byte(nil), s.Icon...)
	}
	return out
}
