package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// VMHost is the syscall-shaped seam a deterministic execution environment
// uses to touch chain state while running a transaction. core never runs
// the VM itself — this interface only fixes the shape a host binary's VM
// integration must present so state reads/writes, event emission and gas
// accounting all flow through one explicit boundary instead of the VM
// reaching into core's internals directly.
type VMHost interface {
	ReadState(key []byte) ([]byte, error)
	WriteState(key, value []byte) error
	Emit(event []byte)
	GasRemaining() uint64
}

// NodeConfig is the boot-time configuration a Node is constructed from.
// It is populated by pkg/config from YAML plus environment overlay.
type NodeConfig struct {
	ChainID         uint64
	ChainHRP        string
	DataDir         string
	Mempool         MempoolPolicy
	FeeWatermark    FeeWatermarkPolicy
	Ban             BanPolicy
	PoIES           PoIESPolicy
	DASampling      DASamplingPolicy
	Randomness      RandomnessPolicy
}

// Node owns every long-lived component this chain's consensus loop needs,
// each as an explicit field rather than a package-level singleton. This
// replaces the teacher's package-scoped CurrentStore()-style global
// registries (spec.md §9 flags ambient mutable singletons for removal):
// every component a caller needs is reached through a *Node value it was
// handed, never through a package function that reads shared state behind
// callers' backs.
type Node struct {
	ID     string
	Config NodeConfig
	Log    *logrus.Logger

	Mempool   *Mempool
	Banlist   *Banlist
	Fees      *FeeWatermark
	BlobStore *BlobStore

	mu    sync.Mutex
	round *RandomnessRound
}

// NewNode constructs a Node and its owned components from cfg. It does
// not start any background activity; callers drive the maintenance loop
// explicitly via Run.
func NewNode(cfg NodeConfig, log *logrus.Logger) (*Node, error) {
	if log == nil {
		log = logrus.New()
	}
	ChainHRP = cfg.ChainHRP

	banlist := NewBanlist(cfg.Ban)
	fees := NewFeeWatermark(cfg.FeeWatermark)
	mempool := NewMempool(cfg.Mempool, banlist, fees, log)

	store, err := NewBlobStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	return &Node{
		ID:        uuid.New().String(),
		Config:    cfg,
		Log:       log,
		Mempool:   mempool,
		Banlist:   banlist,
		Fees:      fees,
		BlobStore: store,
	}, nil
}

// CurrentRound returns the node's active randomness round, or nil before
// the first round has started.
func (n *Node) CurrentRound() *RandomnessRound {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.round
}

// StartRound begins a new randomness round at height, replacing any
// previous round.
func (n *Node) StartRound(height uint64, now time.Time) *RandomnessRound {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.round = NewRound(height, now, n.Config.Randomness)
	return n.round
}

// Run drives the node's periodic maintenance — fee watermark retargeting,
// orphan pruning and ban pruning — until ctx is cancelled. It follows the
// teacher's background-ticker idiom (core/connection_pool.go's reaper())
// but as one structured loop owned by the caller's context rather than a
// detached fire-and-forget goroutine, so callers can always observe and
// cancel it.
func (n *Node) Run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n.Fees.Retarget()
			n.Mempool.PruneOrphans(now)
			n.Banlist.Prune(now, n.Config.Randomness.CommitWindow+n.Config.Randomness.RevealWindow+n.Config.Randomness.VDFWindow)
		}
	}
}
