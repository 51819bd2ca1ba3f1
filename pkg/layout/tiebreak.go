package layout

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"strings"

	errs "github.com/matzehuels/jsonflow/pkg/errors"
)

// MaxNudge bounds every tie-break offset. Offsets stay strictly below it.
const MaxNudge = 0.001

// TieBreaker computes the sub-pixel x offsets added to engine output so that
// no two nodes share an x coordinate.
//
// Nudges receives node ids and their engine x values (same length and order)
// and returns one offset per node in [0, MaxNudge).
type TieBreaker interface {
	Name() string
	Nudges(ids []string, xs []float64) []float64
}

// Tie-break policy names.
const (
	TieBreakOrdered = "ordered"
	TieBreakJitter  = "jitter"
)

// NewTieBreaker returns the policy with the given name. seed only matters
// for the jitter policy.
func NewTieBreaker(name string, seed uint64) (TieBreaker, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case TieBreakOrdered, "":
		return OrderedTieBreak{}, nil
	case TieBreakJitter:
		return &JitterTieBreak{Seed: seed}, nil
	default:
		return nil, errs.New(errs.ErrCodeInvalidConfig, "unknown tie-break policy %q (want ordered or jitter)", name)
	}
}

// OrderedTieBreak ranks nodes by (x, id) and gives the node of rank k the
// offset k/(n·1000). Offsets grow with x, so nudged values keep the engine's
// order and are pairwise distinct, and the result is fully reproducible.
type OrderedTieBreak struct{}

func (OrderedTieBreak) Name() string { return TieBreakOrdered }

func (OrderedTieBreak) Nudges(ids []string, xs []float64) []float64 {
	n := len(ids)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	slices.SortFunc(idx, func(a, b int) int {
		if c := cmp.Compare(xs[a], xs[b]); c != 0 {
			return c
		}
		return strings.Compare(ids[a], ids[b])
	})
	step := MaxNudge / float64(n)
	for rank, i := range idx {
		out[i] = float64(rank) * step
	}
	return out
}

// JitterTieBreak draws every offset uniformly from [0, MaxNudge). A fixed
// Seed makes runs repeatable; each call continues the same stream.
type JitterTieBreak struct {
	Seed uint64
	rng  *rand.Rand
}

func (*JitterTieBreak) Name() string { return TieBreakJitter }

func (j *JitterTieBreak) Nudges(ids []string, _ []float64) []float64 {
	if j.rng == nil {
		j.rng = rand.New(rand.NewPCG(j.Seed, j.Seed^0x9e3779b97f4a7c15))
	}
	out := make([]float64, len(ids))
	for i := range out {
		out[i] = j.rng.Float64() * MaxNudge
	}
	return out
}
