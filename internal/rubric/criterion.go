// Package rubric defines the scoring rubric shared by the console and the
// scoring backend: criterion weights, tier classification and the assessment
// model built from backend payloads.
package rubric

import "fmt"

// Criterion is one scored rubric dimension.
type Criterion string

const (
	Education       Criterion = "education"
	Experience      Criterion = "experience"
	Training        Criterion = "training"
	Eligibility     Criterion = "eligibility"
	Accomplishments Criterion = "accomplishments"
)

// PotentialMax is the ceiling of the standalone administrative potential
// score. Criterion weights plus PotentialMax sum to 100.
const PotentialMax = 15.0

// criterionMax holds the immutable weight of each criterion.
var criterionMax = map[Criterion]float64{
	Education:       40,
	Experience:      20,
	Training:        10,
	Eligibility:     10,
	Accomplishments: 5,
}

// criterionOrder fixes presentation order.
var criterionOrder = []Criterion{Education, Experience, Training, Eligibility, Accomplishments}

// All returns every criterion in presentation order.
func All() []Criterion {
	out := make([]Criterion, len(criterionOrder))
	copy(out, criterionOrder)
	return out
}

// Max returns the criterion's maximum achievable score.
func (c Criterion) Max() float64 {
	return criterionMax[c]
}

// Valid reports whether c names a known criterion.
func (c Criterion) Valid() bool {
	_, ok := criterionMax[c]
	return ok
}

func (c Criterion) String() string {
	return string(c)
}

// Parse converts a wire value into a Criterion.
func Parse(s string) (Criterion, error) {
	c := Criterion(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown criterion %q", s)
	}
	return c, nil
}
