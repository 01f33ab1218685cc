package career

import (
	"fmt"
	"math"
)

const weightsTolerance = 1e-6

// Weights is the single declared weighting policy of the career score.
type Weights struct {
	Resume    float64 `mapstructure:"resume" json:"resume"`
	Social    float64 `mapstructure:"social" json:"social"`
	SkillPath float64 `mapstructure:"skill-path" json:"skill_path"`
	Activity  float64 `mapstructure:"activity" json:"activity"`
	Version   string  `mapstructure:"version" json:"version"`
}

// DefaultWeights returns the system-wide weight vector.
func DefaultWeights() Weights {
	return Weights{
		Resume:    0.4,
		Social:    0.3,
		SkillPath: 0.2,
		Activity:  0.1,
		Version:   "v1",
	}
}

// Validate checks that every weight is non-negative and that they sum to one.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"resume":     w.Resume,
		"social":     w.Social,
		"skill-path": w.SkillPath,
		"activity":   w.Activity,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("weight %s must be non-negative, got %v", name, v)
		}
	}

	sum := w.Resume + w.Social + w.SkillPath + w.Activity
	if math.Abs(sum-1) > weightsTolerance {
		return fmt.Errorf("weights must sum to 1, got %.6f", sum)
	}

	if w.Version == "" {
		return fmt.Errorf("weights version is required")
	}

	return nil
}
