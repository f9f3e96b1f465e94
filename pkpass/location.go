package pkpass

import "math"

// Location is a place where the pass is relevant. Coordinates that are not
// set are NaN.
type Location struct {
	obj object
}

func (l Location) number(key string) float64 {
	if v, ok := l.obj.num(key); ok {
		return v
	}
	return math.NaN()
}

func (l Location) Latitude() float64  { return l.number("latitude") }
func (l Location) Longitude() float64 { return l.number("longitude") }
func (l Location) Altitude() float64  { return l.number("altitude") }

// RelevantText is shown on the lock screen near the location. It is not
// translated.
func (l Location) RelevantText() string {
	return l.obj.str("relevantText")
}
