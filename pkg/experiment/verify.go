package experiment

import (
	"context"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/backend"
	"github.com/OpenTraceLab/OpenTraceMux/pkg/mux"
)

// ExhaustiveLimit is the largest width whose data patterns are all checked.
// Wider multiplexers are checked on SampledPatterns random patterns.
const (
	ExhaustiveLimit = 8
	SampledPatterns = 64
)

// Mismatch is one failing (data, select) combination.
type Mismatch struct {
	Data     []bool
	Select   int
	Expected bool
	Got      string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("data=%s select=%d expected=%t got=%s",
		mux.FormatBits(m.Data), m.Select, m.Expected, m.Got)
}

// VerifyResult summarizes the checks for one width.
type VerifyResult struct {
	DataCount  int
	Patterns   int
	Cases      int
	Exhaustive bool
	Mismatches []Mismatch
}

// OK reports whether every case routed the selected value.
func (v VerifyResult) OK() bool {
	return len(v.Mismatches) == 0
}

// VerifyOptions tunes Verify.
type VerifyOptions struct {
	// Seed drives pattern sampling for wide multiplexers.
	Seed    uint64
	Options []mux.Option
	Logger  *zap.Logger
}

// Verify runs every select value against every data pattern of width
// dataCount on a noiseless simulator and collects the combinations whose
// output differs from the selected data value.
func Verify(ctx context.Context, dataCount int, vo VerifyOptions) (VerifyResult, error) {
	logger := vo.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := mux.NewLayout(dataCount); err != nil {
		return VerifyResult{}, err
	}

	res := VerifyResult{DataCount: dataCount, Exhaustive: dataCount <= ExhaustiveLimit}
	sim := backend.NewSimulator()

	for _, data := range patterns(dataCount, vo.Seed) {
		res.Patterns++
		for sel := 0; sel < dataCount; sel++ {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			c, err := mux.Build(dataCount, data, sel, vo.Options...)
			if err != nil {
				return res, err
			}
			counts, err := sim.Run(ctx, c, 1)
			if err != nil {
				return res, err
			}
			res.Cases++

			got, _ := counts.MostFrequent()
			if want := ExpectedKey(c, data[sel]); got != want {
				m := Mismatch{Data: data, Select: sel, Expected: data[sel], Got: got}
				logger.Warn("mismatch", zap.Int("width", dataCount), zap.Stringer("case", m))
				res.Mismatches = append(res.Mismatches, m)
			}
		}
	}

	logger.Info("verified",
		zap.Int("width", dataCount),
		zap.Int("cases", res.Cases),
		zap.Bool("exhaustive", res.Exhaustive),
		zap.Int("mismatches", len(res.Mismatches)),
	)
	return res, nil
}

// patterns returns every data pattern for small widths and a reproducible
// random sample, plus the all-zero and all-one patterns, for wider ones.
func patterns(n int, seed uint64) [][]bool {
	if n <= ExhaustiveLimit {
		out := make([][]bool, 0, 1<<n)
		for v := 0; v < 1<<n; v++ {
			p := make([]bool, n)
			for i := range p {
				p[i] = v&(1<<i) != 0
			}
			out = append(out, p)
		}
		return out
	}

	rng := rand.New(rand.NewPCG(seed, uint64(n)))
	zeros, ones := make([]bool, n), make([]bool, n)
	for i := range ones {
		ones[i] = true
	}
	out := [][]bool{zeros, ones}
	for len(out) < SampledPatterns {
		p := make([]bool, n)
		for i := range p {
			p[i] = rng.IntN(2) == 1
		}
		out = append(out, p)
	}
	return out
}
