package core

import (
	"time"

	"github.com/holiman/uint256"
)

// Hash is a domain-separated SHA3-256 digest, used wherever the teacher's
// common_structs.go used a bare [32]byte. Kept as a fixed array so it is
// directly usable as a map key (the mempool's byHash index).
type Hash [32]byte

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) String() string { return hexString(h[:]) }

// AddressAlgo names the opaque post-quantum signature algorithm bound to an
// Address, per spec.md's treatment of Dilithium3/SPHINCS+ as black boxes
// behind a Verify(pub, msg, sig) seam. Unknown values round-trip through
// codec/bech32m without this module understanding their internals.
type AddressAlgo uint8

const (
	AlgoUnspecified AddressAlgo = iota
	AlgoDilithium3
	AlgoSPHINCSPlus
)

func (a AddressAlgo) String() string {
	switch a {
	case AlgoDilithium3:
		return "dilithium3"
	case AlgoSPHINCSPlus:
		return "sphincs+"
	default:
		return "unspecified"
	}
}

// Address is a PQ-algorithm-tagged identity: the algorithm id plus the
// algorithm-defined raw identity bytes (typically a hash of the public
// key). It generalizes the teacher's fixed-width Address [20]byte — PQ
// public keys and the identities derived from them are not a fixed 20
// bytes across algorithms.
type Address struct {
	Algo AddressAlgo
	Raw  []byte
}

// AddressZero is the sentinel zero-value address, mirroring the teacher's
// var AddressZero = Address{}.
var AddressZero = Address{}

// Equal reports whether two addresses name the same algorithm and raw id.
func (a Address) Equal(o Address) bool {
	if a.Algo != o.Algo || len(a.Raw) != len(o.Raw) {
		return false
	}
	for i := range a.Raw {
		if a.Raw[i] != o.Raw[i] {
			return false
		}
	}
	return true
}

func (a Address) IsZero() bool { return a.Algo == AlgoUnspecified && len(a.Raw) == 0 }

// String renders a as its bech32m form for logging and error context,
// falling back to the Key() hex form if EncodeAddress returns an error.
func (a Address) String() string {
	s, err := EncodeAddress(a)
	if err != nil {
		return a.Key()
	}
	return s
}

// Key returns a comparable string representation of a, for use as a map
// key wherever per-sender or per-participant state is indexed by
// Address. Address itself cannot be a map key directly: its Raw field is
// a slice, which Go's comparability rules exclude from key types.
func (a Address) Key() string {
	buf := make([]byte, 1+len(a.Raw))
	buf[0] = byte(a.Algo)
	copy(buf[1:], a.Raw)
	return hexString(buf)
}

// Verifier is the opaque-black-box seam for PQ signature verification.
// Concrete Dilithium3/SPHINCS+ implementations come from outside core
// (cmd/animica-node registers none); core never imports a PQ crypto
// library directly, mirroring how the teacher's quantum_resistant_node.go treats
// DilithiumKeypair as an external call rather than inline cryptography.
type Verifier interface {
	Algo() AddressAlgo
	Verify(pubKey, msg, sig []byte) bool
}

// VerifierRegistry resolves an AddressAlgo to its Verifier. It is a plain
// map with no locking of its own, and an algorithm with no entry fails
// verification. It is deliberately not the teacher's duck-typed _lazy_import-style dynamic
// dispatch flagged in spec.md §9.
type VerifierRegistry map[AddressAlgo]Verifier

func (r VerifierRegistry) Verify(algo AddressAlgo, pubKey, msg, sig []byte) bool {
	v, ok := r[algo]
	if !ok {
		return false
	}
	return v.Verify(pubKey, msg, sig)
}

// TxKind distinguishes transaction payload shapes. Unlike the teacher's
// tx_types.go/tx_types_nontokens.go pair (two competing enums gated by
// //go:build tokens / !tokens), this is the single canonical definition.
type TxKind uint8

const (
	TxTransfer TxKind = iota
	TxContractCall
	TxDataBlob
)

// Transaction is the canonical signed transaction envelope. Its wire
// encoding is produced exclusively by EncodeCanonical (core/codec.go);
// json.Marshal must never be used for hashing or signing, unlike the
// teacher's transaction_hash.go which hashed the json.Marshal output.
type Transaction struct {
	ChainID   uint64
	Nonce     uint64
	Sender    Address
	Kind      TxKind
	To        *Address
	Value     *uint256.Int
	GasLimit  uint64
	GasPrice  uint64 // wei per gas unit, the fee-market's native unit
	Data      []byte
	PubKey    []byte
	Signature []byte
}

// FeeCap returns the maximum the sender is willing to pay, GasLimit *
// GasPrice, saturating instead of overflowing on pathological inputs.
func (tx *Transaction) FeeCap() uint64 {
	limit, price := tx.GasLimit, tx.GasPrice
	if limit == 0 || price == 0 {
		return 0
	}
	if limit > (^uint64(0))/price {
		return ^uint64(0)
	}
	return limit * price
}

// MempoolEntry wraps an admitted Transaction with the bookkeeping the pool
// needs for ordering, eviction and replace-by-fee, grounded on the shape
// the teacher's three competing txpool_*.go variants each reimplemented
// ad hoc (core/txpool_addtx.go, txpool_snapshot.go, txpool_stub.go).
type MempoolEntry struct {
	Tx        *Transaction
	TxHash    Hash
	ArrivedAt time.Time
	Size      int
}

// ProofType names a PoIES useful-work proof category.
type ProofType uint8

const (
	ProofHash ProofType = iota
	ProofAI
	ProofQuantum
	ProofStorage
	ProofVDF
)

func (p ProofType) String() string {
	switch p {
	case ProofHash:
		return "hash"
	case ProofAI:
		return "ai"
	case ProofQuantum:
		return "quantum"
	case ProofStorage:
		return "storage"
	case ProofVDF:
		return "vdf"
	default:
		return "unknown"
	}
}

// ProofCandidate is one submitted useful-work proof awaiting PoIES
// selection for inclusion in a block header.
type ProofCandidate struct {
	Type      ProofType
	Submitter Address
	Payload   []byte
	// Metric carries the type-specific raw measurement Psi's kind-specific
	// branch consumes: for ProofHash, the ratio H/Θ of the proof's
	// hash-derived work value to the difficulty threshold; for ProofAI,
	// ProofQuantum and ProofStorage, a linear unit count (accuracy units,
	// qubit-work units, storage-proof units respectively) divided by its
	// kind's calibration constant; for ProofVDF, a positive value means the
	// submitted VDF proof already verified (Psi treats it as a pass/fail
	// indicator, not a magnitude).
	Metric float64
}

// PsiCalibration holds the per-type calibration pair Psi's kind-specific
// branch consumes: for ProofHash, Alpha multiplies log1p(Metric); for
// ProofAI/ProofQuantum/ProofStorage, Alpha divides Metric (the linear
// "calibration[kind]" divisor spec.md §4.5 names); for ProofVDF, Alpha is
// unused. Cap bounds the resulting ψ for every kind.
type PsiCalibration struct {
	Alpha float64
	Cap   float64
}

// PoIESPolicy is the fairness policy PoIES selection enforces: a per-type
// cap, an aggregate Γ cap, a per-kind Γ weight, and an escort/diversity
// slack. Version numbers the policy itself so a header's PolicyRoot can be
// traced back to the exact fairness rules a block was assembled under.
type PoIESPolicy struct {
	PerTypeCaps map[ProofType]float64
	GammaCap    float64
	EscortQ     float64
	Calibration map[ProofType]PsiCalibration
	// Weights scales each kind's selected ψ sum before it contributes to
	// Γ (spec.md §4.5: Γ = Σ_kind weights[kind]·ψ_kind_selected_sum).
	// A kind absent from Weights (or a nil map) defaults to weight 1, so
	// policies that don't configure weighting get Γ as the unweighted ψ
	// sum, matching the behavior before Γ weighting was introduced.
	Weights map[ProofType]float64
	Version uint64
}

// BlobCommitment is the DA engine's output for one namespaced blob: its
// NMT root and the namespace range it spans.
type BlobCommitment struct {
	Namespace uint32
	Root      Hash
	Size      int
	ShardsK   int // data shards
	ShardsN   int // data+parity shards
}

// RandomnessPhase names the beacon round's commit/reveal/VDF state
// machine stages.
type RandomnessPhase uint8

const (
	PhaseCommit RandomnessPhase = iota
	PhaseReveal
	PhaseVDF
	PhaseFinalized
)

func (p RandomnessPhase) String() string {
	switch p {
	case PhaseCommit:
		return "commit"
	case PhaseReveal:
		return "reveal"
	case PhaseVDF:
		return "vdf"
	case PhaseFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// RandomnessRound tracks one beacon round's progress through its phases.
type RandomnessRound struct {
	Height     uint64
	Phase      RandomnessPhase
	Commits    map[string]Hash // participant.Key() -> commit(reveal)
	Reveals    map[string][]byte
	VDFInput   []byte
	VDFOutput  []byte
	VDFProof   []byte
	Beacon     Hash
	CommitEnd  time.Time
	RevealEnd  time.Time
	VDFEnd     time.Time
}

// BlockHeader binds the outputs of every component into the value that is
// ultimately hashed and signed, generalizing the teacher's
// BlockHeader.SerializeWithoutNonce/Hash pattern (core/consensus.go) to
// carry DA, randomness and PoIES-policy commitments. Every field here must round-trip through canonical CBOR without
// a float: PoIESGammaMicro carries Γ as micro-units (Γ*1e6, rounded) so
// the hashed and signed header never embeds an IEEE-754 value.
type BlockHeader struct {
	Version         uint32
	Height          uint64
	ParentHash      Hash
	TxRoot          Hash
	StateRoot       Hash
	DARoot          Hash
	RandomnessTag   Hash
	PoIESGammaMicro int64
	PolicyRoot      Hash
	ProofRoot       Hash
	Proposer        Address
	Timestamp       time.Time
}

// Block pairs a header with the transactions and proofs it commits to.
type Block struct {
	Header     BlockHeader
	Txs        []*Transaction
	Proofs     []ProofCandidate
	Blobs      []BlobCommitment
	HeaderHash Hash
}
