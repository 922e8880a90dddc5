package sample

// Downsample reduces samples to at most maxPoints for plotting. Each output
// point covers a run of consecutive samples, carries the timestamp of the
// first one and, per channel, the reading with the highest level in the run,
// so short presses stay visible after decimation.
// Destination-based: reuses dst if it has sufficient capacity, otherwise allocates new.
// Input samples are never modified.
func Downsample(dst []Sample, samples []Sample, maxPoints int) []Sample {
	if len(samples) <= maxPoints {
		if cap(dst) >= len(samples) {
			dst = dst[:len(samples)]
			copy(dst, samples)
			return dst
		}
		result := make([]Sample, len(samples))
		copy(result, samples)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]Sample, 0, maxPoints)
	}

	step := float64(len(samples)) / float64(maxPoints)
	for i := range maxPoints {
		start := int(float64(i) * step)
		end := min(int(float64(i+1)*step), len(samples))
		if start >= end {
			continue
		}
		dst = append(dst, peak(samples[start:end]))
	}

	return dst
}

// peak merges a run of samples keeping the per-channel maximum level.
func peak(run []Sample) Sample {
	if len(run) == 1 {
		return run[0]
	}

	first := run[0]
	out := Sample{
		Timestamp: first.Timestamp,
		Values:    make([]float64, len(first.Values)),
		Levels:    make([]float64, len(first.Levels)),
	}
	copy(out.Values, first.Values)
	copy(out.Levels, first.Levels)

	for _, s := range run[1:] {
		for ch := range out.Values {
			if ch >= len(s.Values) {
				break
			}
			if plotLevel(s, ch) > plotLevel(out, ch) {
				out.Values[ch] = s.Values[ch]
				if ch < len(out.Levels) && ch < len(s.Levels) {
					out.Levels[ch] = s.Levels[ch]
				}
			}
		}
	}
	return out
}

// plotLevel returns the tared level of channel ch, falling back to the raw value.
func plotLevel(s Sample, ch int) float64 {
	if ch < len(s.Levels) {
		return s.Levels[ch]
	}
	return s.Values[ch]
}
