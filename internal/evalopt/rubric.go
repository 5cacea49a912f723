package evalopt

import "fmt"

// Criterion identifiers understood by Score. Any other ID scores
// unknownScore.
const (
	CriterionCoverage      = "coverage"
	CriterionRecency       = "recency"
	CriterionCorrectness   = "correctness"
	CriterionActionability = "actionability"
)

// DefaultWeight applies to criteria loaded without a weight.
const DefaultWeight = 0.25

// Criterion is one weighted rubric entry.
type Criterion struct {
	ID     string  `yaml:"id" json:"id"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Rubric is an ordered list of criteria.
type Rubric []Criterion

// DefaultRubric returns the four built-in criteria at equal weight.
func DefaultRubric() Rubric {
	return Rubric{
		{ID: CriterionCoverage, Weight: DefaultWeight},
		{ID: CriterionRecency, Weight: DefaultWeight},
		{ID: CriterionCorrectness, Weight: DefaultWeight},
		{ID: CriterionActionability, Weight: DefaultWeight},
	}
}

// Validate rejects negative weights and empty IDs.
func (r Rubric) Validate() error {
	for i, c := range r {
		if c.ID == "" {
			return fmt.Errorf("rubric[%d]: empty criterion id", i)
		}
		if c.Weight < 0 {
			return fmt.Errorf("rubric[%d] %q: negative weight %v", i, c.ID, c.Weight)
		}
	}
	return nil
}
