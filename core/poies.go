package core

import (
	"math"
	"sort"
)

// escortSlackEpsilon resolves spec.md's Open Question on escort_q slack:
// the proportional per-kind share bound is enforced up to this epsilon so
// floating point rounding cannot flip a legitimately-at-the-boundary
// candidate between accepted and skipped.
const escortSlackEpsilon = 1e-9

// gammaMicroScale is the fixed-point scale BlockHeader.PoIESGammaMicro and
// HashPolicy's leaf encoding use to carry Γ and policy floats through
// canonical, float-free hashing.
const gammaMicroScale = 1_000_000

// GammaMicro converts a float Γ (or any policy float field) into its
// micro-unit fixed-point integer form, rounding to the nearest micro-unit.
// BlockHeader stores Γ this way rather than as a float64 so the canonical
// CBOR encoding HashHeader signs never embeds an IEEE-754 value.
func GammaMicro(gamma float64) int64 {
	return int64(math.Round(gamma * gammaMicroScale))
}

// Psi maps a proof candidate's raw Metric onto its bounded useful-work
// score via a kind-specific function (spec.md §4.5): Hash uses the
// log-compressed shape grounded on the reference implementation's
// mining/share_target.py (t_share = Θ - ln(R)); AI, Quantum and Storage
// use a linear units/calibration divisor, since their raw Metric is
// already a calibrated unit count rather than a log quantity; VDF treats
// a positive Metric as a pass/fail validity indicator rather than a
// magnitude. Every branch clips the result to [0, calib.Cap].
func Psi(p ProofCandidate, calib PsiCalibration) float64 {
	if p.Metric <= 0 {
		return 0
	}
	var score float64
	switch p.Type {
	case ProofHash:
		score = calib.Alpha * math.Log1p(p.Metric)
	case ProofAI, ProofQuantum, ProofStorage:
		if calib.Alpha <= 0 {
			return 0
		}
		score = p.Metric / calib.Alpha
	case ProofVDF:
		score = 1.0
	default:
		return 0
	}
	if score > calib.Cap {
		return calib.Cap
	}
	if score < 0 {
		return 0
	}
	return score
}

// scoredCandidate pairs a candidate with its computed ψ for selection.
type scoredCandidate struct {
	candidate ProofCandidate
	psi       float64
}

// weightFor returns the Γ weight policy assigns to kind t. A nil or
// kind-absent Weights map defaults to 1, so a policy that never
// configures weighting gets Γ as the plain unweighted ψ sum.
func weightFor(policy PoIESPolicy, t ProofType) float64 {
	if policy.Weights == nil {
		return 1
	}
	if w, ok := policy.Weights[t]; ok {
		return w
	}
	return 1
}

// SelectProofs runs PoIES greedy selection over candidates: each
// candidate's ψ is computed from policy.Calibration, then candidates are
// taken in descending ψ order subject to spec.md §4.5's three fairness
// constraints — a per-type ψ cap, a total Γ cap, and a proportional
// escort/diversity bound — and Γ is accumulated as
// Σ_kind weights[kind]·ψ_kind_selected_sum rather than a plain ψ sum. It
// returns the selected candidates and their aggregate Γ score.
func SelectProofs(candidates []ProofCandidate, policy PoIESPolicy) ([]ProofCandidate, float64) {
	scored := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		calib := policy.Calibration[c.Type]
		scored = append(scored, scoredCandidate{candidate: c, psi: Psi(c, calib)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].psi > scored[j].psi })

	typeTotals := make(map[ProofType]float64, len(policy.PerTypeCaps))
	kindGamma := make(map[ProofType]float64, len(policy.PerTypeCaps))
	var selected []ProofCandidate
	var gamma float64

	for _, sc := range scored {
		if sc.psi <= 0 {
			continue
		}
		cType := sc.candidate.Type

		if cap, hasCap := policy.PerTypeCaps[cType]; hasCap && typeTotals[cType]+sc.psi > cap+escortSlackEpsilon {
			continue
		}

		w := weightFor(policy, cType)
		wc := w * sc.psi

		if gamma+wc > policy.GammaCap+escortSlackEpsilon {
			continue
		}

		// Escort/diversity rule (spec.md §4.5 step 3): no single kind may
		// already contribute more than escort_q·Γ_so_far + ε to Γ. Once a
		// kind crosses that share, further same-kind items are skipped —
		// not replaced by a lookahead substitute — letting the next
		// highest-ψ candidate of another kind take the slot instead.
		if policy.EscortQ > 0 && kindGamma[cType] > policy.EscortQ*gamma+escortSlackEpsilon {
			continue
		}

		selected = append(selected, sc.candidate)
		typeTotals[cType] += sc.psi
		kindGamma[cType] += wc
		gamma += wc
	}

	return selected, gamma
}

// HashPolicy computes a PoIESPolicy's stable root: SHA3-256 over a
// canonical leaf ordering (kind 0..4 in fixed ProofType order, never map
// iteration order) of its weight, per-type cap and calibration fields,
// each carried as a micro-unit integer so no float ever enters the
// hashed bytes, followed by the policy's scalar fields and version. This
// is the root BlockHeader.PolicyRoot commits to (spec.md §3: "Policy is
// hashed to a stable root ... used by headers").
func HashPolicy(policy PoIESPolicy) (Hash, error) {
	var buf []byte
	for k := ProofHash; k <= ProofVDF; k++ {
		calib := policy.Calibration[k]
		buf = appendInt64BE(buf, byte(k), GammaMicro(weightAt(policy, k)))
		buf = appendInt64BE(buf, byte(k), GammaMicro(policy.PerTypeCaps[k]))
		buf = appendInt64BE(buf, byte(k), GammaMicro(calib.Alpha))
		buf = appendInt64BE(buf, byte(k), GammaMicro(calib.Cap))
	}
	buf = appendInt64BE(buf, 0, GammaMicro(policy.GammaCap))
	buf = appendInt64BE(buf, 0, GammaMicro(policy.EscortQ))
	buf = appendUint64BE(buf, policy.Version)
	return DomainHash(DomainPolicyRoot, buf), nil
}

// weightAt returns the raw configured weight for kind k (0 if the policy
// never configures Weights for it), distinct from weightFor's
// selection-time default-to-1 behavior: the policy root must reflect
// exactly what was configured, not the runtime fallback.
func weightAt(policy PoIESPolicy, k ProofType) float64 {
	if policy.Weights == nil {
		return 0
	}
	return policy.Weights[k]
}

func appendInt64BE(buf []byte, tag byte, v int64) []byte {
	buf = append(buf, tag)
	return appendUint64BE(buf, uint64(v))
}

func appendUint64BE(buf []byte, v uint64) []byte {
	var b [8]byte
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return append(buf, b[:]...)
}
