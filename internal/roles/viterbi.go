package roles

import (
	"fmt"
	"math"

	"github.com/yuanying/epub2txt/internal/apperr"
)

// ErrNoPath is returned when no role sequence has non-zero probability.
var ErrNoPath = fmt.Errorf("%w: no admissible role sequence", apperr.ErrClassification)

// Emission returns the probability of observing feats in state s. Features
// are treated as independent given the state.
func (m *Model) Emission(s Role, feats Features) float64 {
	p := 1.0
	for i, on := range feats {
		if on {
			p *= m.Emit[s][i]
		}
	}
	return p
}

// Viterbi returns the most likely role sequence for the feature vectors.
// Roles not marked in active are never assigned, and a transition that moves
// backwards in the narrative order has probability zero unless Permits allows
// it. Ties go to the lowest role.
func (m *Model) Viterbi(feats []Features, active [NumRoles]bool) ([]Role, error) {
	if len(feats) == 0 {
		return nil, nil
	}

	prob := make([][NumRoles]float64, len(feats))
	back := make([][NumRoles]Role, len(feats))

	for s := range NumRoles {
		if active[s] {
			prob[0][s] = m.Init[s] * m.Emission(Role(s), feats[0])
		}
	}
	rescale(&prob[0])

	for t := 1; t < len(feats); t++ {
		for s := range NumRoles {
			if !active[s] {
				continue
			}
			best, arg := -1.0, Role(0)
			for r := range NumRoles {
				if !active[r] || !Permits(Role(r), Role(s)) {
					continue
				}
				if v := prob[t-1][r] * m.Trans[r][s]; v > best {
					best, arg = v, Role(r)
				}
			}
			prob[t][s] = best * m.Emission(Role(s), feats[t])
			back[t][s] = arg
		}
		rescale(&prob[t])
	}

	last := len(feats) - 1
	best, arg := -1.0, Role(0)
	for s := range NumRoles {
		if !active[s] {
			continue
		}
		if v := prob[last][s] * m.End[s]; v > best {
			best, arg = v, Role(s)
		}
	}
	if best <= 0 {
		return nil, ErrNoPath
	}

	path := make([]Role, len(feats))
	path[last] = arg
	for t := last; t > 0; t-- {
		path[t-1] = back[t][path[t]]
	}
	return path, nil
}

// rescale multiplies a column by a power of two so its maximum lies in
// [0.5, 1). Scaling by a power of two is exact, so comparisons between paths
// are unchanged while long books no longer underflow.
func rescale(col *[NumRoles]float64) {
	peak := 0.0
	for _, v := range col {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		return
	}
	_, exp := math.Frexp(peak)
	for i := range col {
		col[i] = math.Ldexp(col[i], -exp)
	}
}
