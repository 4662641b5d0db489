// Package dspcore holds the small DSP building blocks shared by the
// feature extractor and pitch estimator: cached real-FFT plans, window
// functions, a fixed-capacity ring buffer, and linear interpolation.
package dspcore

import (
	"errors"
	"sync"

	algofft "github.com/cwbudde/algo-fft"
)

// RealFFTPlan wraps algo-fft's fast and safe real-transform plans behind
// a single Forward/Inverse pair, falling back to the safe plan whenever
// the fast path isn't available for a given size.
type RealFFTPlan struct {
	mu   sync.Mutex
	n    int
	fast *algofft.FastPlanReal64
	safe *algofft.PlanRealT[float64, complex128]
}

var planCache sync.Map // map[int]*RealFFTPlan

// GetRealFFTPlan returns a cached plan for transform size n, creating it
// on first use.
func GetRealFFTPlan(n int) (*RealFFTPlan, error) {
	if v, ok := planCache.Load(n); ok {
		return v.(*RealFFTPlan), nil
	}

	p := &RealFFTPlan{n: n}

	fast, err := algofft.NewFastPlanReal64(n)
	if err == nil {
		p.fast = fast
	} else if !errors.Is(err, algofft.ErrNotImplemented) {
		// Ignore fast-plan setup errors and rely on the safe plan.
	}

	safe, err := algofft.NewPlanReal64(n)
	if err != nil {
		if p.fast == nil {
			return nil, err
		}
	} else {
		p.safe = safe
	}

	actual, _ := planCache.LoadOrStore(n, p)
	return actual.(*RealFFTPlan), nil
}

// Len reports the transform size this plan was built for.
func (p *RealFFTPlan) Len() int { return p.n }

// Forward computes the forward real FFT of src into dst (len(dst) ==
// n/2+1).
func (p *RealFFTPlan) Forward(dst []complex128, src []float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fast != nil {
		p.fast.Forward(dst, src)
		return nil
	}
	if p.safe != nil {
		return p.safe.Forward(dst, src)
	}
	return errors.New("dspcore: missing FFT forward plan")
}

// Inverse computes the inverse real FFT of src into dst (len(dst) == n).
func (p *RealFFTPlan) Inverse(dst []float64, src []complex128) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fast != nil {
		p.fast.Inverse(dst, src)
		return nil
	}
	if p.safe != nil {
		return p.safe.Inverse(dst, src)
	}
	return errors.New("dspcore: missing FFT inverse plan")
}

// NextPow2 returns the smallest power of two >= n.
func NextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
