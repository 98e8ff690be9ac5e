package execution

import "math/rand"

// FillModel is the injectable policy deciding whether a resting order
// fills when the market touches its price, and whether a market order
// suffers slippage. Implementations must be deterministic for a given
// construction so that replays are bit-reproducible.
type FillModel interface {
	// FillsAtLimit decides whether a limit order fills when price touches
	// the limit without trading through it.
	FillsAtLimit() bool
	// AppliesSlippage decides whether a market fill slips one tick.
	AppliesSlippage() bool
}

// StaticFillModel always answers the same way. The zero value fills at
// limit and never slips, which is the default engine behavior.
type StaticFillModel struct {
	NoFillAtLimit bool
	Slippage      bool
}

func (m StaticFillModel) FillsAtLimit() bool    { return !m.NoFillAtLimit }
func (m StaticFillModel) AppliesSlippage() bool { return m.Slippage }

// ProbFillModel draws fill and slippage decisions from a seeded source,
// so runs with the same seed reproduce the same fills.
type ProbFillModel struct {
	probFillAtLimit float64
	probSlippage    float64
	seed            int64
	rng             *rand.Rand
}

// NewProbFillModel creates a probabilistic fill model. Probabilities are
// clamped to [0, 1].
func NewProbFillModel(probFillAtLimit, probSlippage float64, seed int64) *ProbFillModel {
	m := &ProbFillModel{
		probFillAtLimit: clamp01(probFillAtLimit),
		probSlippage:    clamp01(probSlippage),
		seed:            seed,
	}
	m.Reset()
	return m
}

// Reset rewinds the random source to its seed so a replay after an
// exchange reset draws the same decisions.
func (m *ProbFillModel) Reset() {
	m.rng = rand.New(rand.NewSource(m.seed))
}

func (m *ProbFillModel) FillsAtLimit() bool {
	return m.rng.Float64() < m.probFillAtLimit
}

func (m *ProbFillModel) AppliesSlippage() bool {
	return m.rng.Float64() < m.probSlippage
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
