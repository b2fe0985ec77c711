package main

// TrackState maps a colour name to the last quadrant that colour was seen in.
// A colour missing from the map has never been seen. A colour mapped to
// NoQuadrant was last seen outside every quadrant.
//
// Only one ball per colour is assumed. When several blobs of the same colour
// appear in one frame they are applied in detection order and the last one
// determines the state.
type TrackState map[string]Quadrant

// NewTrackState returns an empty state: no colour has a last quadrant.
func NewTrackState() TrackState {
	return make(TrackState)
}

// Last returns the colour's last quadrant and whether it has been seen at all.
func (s TrackState) Last(color string) (Quadrant, bool) {
	q, ok := s[color]
	return q, ok
}

// Clone returns an independent copy of the state.
func (s TrackState) Clone() TrackState {
	out := make(TrackState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Transition applies one accepted sighting of color in quadrant q at ts.
// It returns the next state, leaving s untouched, and the events produced:
//   - first sighting: Entry(q)
//   - quadrant changed: Exit(previous) then Entry(q)
//   - unchanged: nothing
func Transition(s TrackState, color string, q Quadrant, ts float64) (TrackState, []Event) {
	next := s.Clone()
	next[color] = q

	prev, seen := s[color]
	switch {
	case !seen:
		return next, []Event{{TimestampMs: ts, Quadrant: q, Color: color, Kind: Entry}}
	case prev != q:
		return next, []Event{
			{TimestampMs: ts, Quadrant: prev, Color: color, Kind: Exit},
			{TimestampMs: ts, Quadrant: q, Color: color, Kind: Entry},
		}
	default:
		return next, nil
	}
}
