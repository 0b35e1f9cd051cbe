package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

type ratio struct {
	num, den uint64
}

// ratioSampler lets num out of every den events through. A zero ratio lets everything through.
type ratioSampler struct {
	ratio   atomic.Pointer[ratio]
	counter atomic.Uint64
}

func newRatioSampler(numerator, denominator int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(numerator, denominator)
	return s
}

// Set replaces the sampling ratio and restarts the cycle.
func (s *ratioSampler) Set(numerator, denominator int) {
	r := &ratio{}
	if numerator > 0 && denominator > 0 {
		r.num, r.den = uint64(min(numerator, denominator)), uint64(denominator)
	}
	s.ratio.Store(r)
	s.counter.Store(0)
}

// Allow reports whether the current event passes sampling.
func (s *ratioSampler) Allow() bool {
	r := s.ratio.Load()
	if r == nil || r.den == 0 {
		return true
	}
	n := s.counter.Add(1) - 1
	return n%r.den < r.num
}

// parseRatioSpec accepts "n/d" or "d" (meaning 1/d). Invalid or non-positive specs yield 0, 0.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if numStr, denStr, ok := strings.Cut(spec, "/"); ok {
		num, err1 := strconv.Atoi(strings.TrimSpace(numStr))
		den, err2 := strconv.Atoi(strings.TrimSpace(denStr))
		if err1 != nil || err2 != nil {
			return 0, 0
		}
		return num, den
	}
	v, err := strconv.Atoi(spec)
	if err != nil || v <= 0 {
		return 0, 0
	}
	return 1, v
}
