package dspcore

// LinearResample resamples x (assumed evenly spaced over its domain) to
// outLen points using order-1 (linear) interpolation, the algorithm
// spec.md names explicitly for the reference WAV loader and for
// resampling contour arrays onto a shared visualization grid.
func LinearResample(x []float64, outLen int) []float64 {
	if outLen <= 0 {
		return nil
	}
	if len(x) == 0 {
		return make([]float64, outLen)
	}
	if len(x) == 1 {
		out := make([]float64, outLen)
		for i := range out {
			out[i] = x[0]
		}
		return out
	}

	out := make([]float64, outLen)
	lastIdx := float64(len(x) - 1)
	for i := 0; i < outLen; i++ {
		var pos float64
		if outLen == 1 {
			pos = 0
		} else {
			pos = float64(i) * lastIdx / float64(outLen-1)
		}
		lo := int(pos)
		if lo >= len(x)-1 {
			out[i] = x[len(x)-1]
			continue
		}
		frac := pos - float64(lo)
		out[i] = x[lo] + frac*(x[lo+1]-x[lo])
	}
	return out
}

// LinearResampleRate resamples x from fromRate Hz to toRate Hz using
// linear interpolation, preserving the signal's wall-clock duration.
func LinearResampleRate(x []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || len(x) == 0 {
		return append([]float32(nil), x...)
	}
	outLen := int(float64(len(x)) * float64(toRate) / float64(fromRate))
	if outLen < 1 {
		outLen = 1
	}
	out := make([]float32, outLen)
	lastIdx := float64(len(x) - 1)
	for i := 0; i < outLen; i++ {
		pos := float64(i) * float64(fromRate) / float64(toRate)
		if pos > lastIdx {
			pos = lastIdx
		}
		lo := int(pos)
		if lo >= len(x)-1 {
			out[i] = x[len(x)-1]
			continue
		}
		frac := float32(pos - float64(lo))
		out[i] = x[lo] + frac*(x[lo+1]-x[lo])
	}
	return out
}
