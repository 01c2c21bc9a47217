package core

import "math"

// RSLayout describes one blob's Reed-Solomon-style redundancy shape: k
// data shards are erasure-coded into n total shards, so any k of the n
// suffice to reconstruct the blob and withholding more than n-k shards is
// required before reconstruction becomes impossible.
type RSLayout struct {
	K int // data shards required to reconstruct
	N int // total shards (data + parity)
}

// MaxWithholdable returns the maximum number of shards an adversary can
// withhold while reconstruction from the remaining shards is still
// possible, i.e. n-k.
func (l RSLayout) MaxWithholdable() int {
	if l.N < l.K {
		return 0
	}
	return l.N - l.K
}

// SamplingFailureProbability computes p_fail(s): the probability that a
// light client sampling s of the n shards without replacement fails to
// observe any of the withheld set, when withheld shards number
// withheldCount, using the exact hypergeometric tail
// p_fail(s) = C(n-withheldCount, s) / C(n, s), computed as a running
// product to avoid overflow from explicit binomial coefficients:
//
//	p_fail(s) = prod_{i=0}^{s-1} (n-withheldCount-i) / (n-i)
//
// grounded on the reference light_client.py's light_verify, generalized
// here into a standalone pure function rather than that module's
// duck-typed _lazy_import dispatch (spec.md §9 flags that pattern for
// replacement; this is a direct, statically-typed computation).
func SamplingFailureProbability(layout RSLayout, withheldCount, samples int) float64 {
	n := layout.N
	if withheldCount <= 0 {
		// Nothing withheld: there is no withheld shard for any sample to
		// miss, so detection is vacuously impossible and p_fail is 1
		// regardless of how many shards are sampled.
		return 1
	}
	if samples <= 0 {
		return boolToProb(withheldCount > 0)
	}
	if withheldCount > n {
		withheldCount = n
	}
	if samples > n {
		samples = n
	}
	if samples > n-withheldCount {
		// Every sample must hit a non-withheld shard, but there aren't
		// enough of them: detection is certain.
		return 0
	}

	p := 1.0
	for i := 0; i < samples; i++ {
		num := float64(n - withheldCount - i)
		den := float64(n - i)
		if num < 0 {
			return 0
		}
		p *= num / den
	}
	return p
}

func boolToProb(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// SamplingFailureProbabilityApprox computes the sampling-with-replacement
// approximation ((n-withheldCount)/n)^samples. It is cheaper than the
// exact hypergeometric computation and converges to it as n grows large
// relative to samples, matching the reference implementation's "approx"
// mode used when n is large enough that the difference is immaterial.
func SamplingFailureProbabilityApprox(layout RSLayout, withheldCount, samples int) float64 {
	n := layout.N
	if n == 0 {
		return 1
	}
	ratio := float64(n-withheldCount) / float64(n)
	if ratio < 0 {
		ratio = 0
	}
	return math.Pow(ratio, float64(samples))
}

// MinSamplesForTarget finds the smallest sample count s in [1, n] such
// that sampling s shards detects withholding of exactly withheldCount
// shards with failure probability at most targetPFail, via binary search
// over s (SamplingFailureProbability is monotonically non-increasing in
// s). It returns n if even sampling every shard cannot reach the target.
// In the exact model that only happens when withheldCount is 0; in the
// approx model it also happens whenever ((n-withheldCount)/n)^n is still
// above targetPFail.
func MinSamplesForTarget(layout RSLayout, withheldCount int, targetPFail float64, approx bool) int {
	n := layout.N
	pFail := func(s int) float64 {
		if approx {
			return SamplingFailureProbabilityApprox(layout, withheldCount, s)
		}
		return SamplingFailureProbability(layout, withheldCount, s)
	}

	lo, hi := 1, n
	if pFail(n) > targetPFail {
		return n
	}
	for lo < hi {
		mid := (lo + hi) / 2
		if pFail(mid) <= targetPFail {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// DASamplingPolicy bounds the light-client sampling a node advertises or
// accepts, and whether to use the exact or approximate failure model.
type DASamplingPolicy struct {
	TargetPFail float64
	Approx      bool
}

// RequiredSamples returns the sample count a light client must draw to
// meet policy.TargetPFail against the worst case the layout tolerates
// (an adversary withholding exactly MaxWithholdable()+1 shards — one more
// than reconstruction allows, the minimum withholding that actually
// threatens availability).
func RequiredSamples(layout RSLayout, policy DASamplingPolicy) int {
	threat := layout.MaxWithholdable() + 1
	if threat > layout.N {
		threat = layout.N
	}
	return MinSamplesForTarget(layout, threat, policy.TargetPFail, policy.Approx)
}
