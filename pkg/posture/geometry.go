package posture

import (
	"math"

	"PoseFeedback/internal/entity"
)

// Angle returns the angle at vertex b between rays b->a and b->c, in degrees.
// It returns 0 when a point is missing or malformed, or when either ray has
// zero length; callers treat 0 as "metric unavailable".
func Angle(a, b, c *entity.Landmark) float64 {
	for _, p := range []*entity.Landmark{a, b, c} {
		if p == nil || !finite(p.X) || !finite(p.Y) {
			return 0
		}
	}

	baX, baY := a.X-b.X, a.Y-b.Y
	bcX, bcY := c.X-b.X, c.Y-b.Y

	normBA := math.Hypot(baX, baY)
	normBC := math.Hypot(bcX, bcY)
	if normBA == 0 || normBC == 0 {
		return 0
	}

	cosine := (baX*bcX + baY*bcY) / (normBA * normBC)
	cosine = math.Max(-1, math.Min(1, cosine))

	angle := math.Acos(cosine) * 180 / math.Pi
	if math.IsNaN(angle) {
		return 0
	}
	return angle
}

func VerticalDifferential(p, q entity.Landmark) float64 {
	return math.Abs(p.Y - q.Y)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
