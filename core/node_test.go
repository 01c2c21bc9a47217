package core

import (
	"context"
	"testing"
	"time"

	"animica-core/internal/testutil"
)

func testNodeConfig(dataDir string) NodeConfig {
	return NodeConfig{
		ChainID:  1,
		ChainHRP: "anim",
		DataDir:  dataDir,
		Mempool:  DefaultMempoolPolicy(1),
		FeeWatermark: DefaultFeeWatermarkPolicy(),
		Ban:          DefaultBanPolicy(),
		PoIES:        testPolicy(),
		DASampling:   DASamplingPolicy{TargetPFail: 0.01},
		Randomness: RandomnessPolicy{
			CommitWindow: time.Minute,
			RevealWindow: time.Minute,
			VDFWindow:    time.Minute,
			VDF:          testVDFParams(),
		},
	}
}

func TestNewNodeWiresComponents(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	node, err := NewNode(testNodeConfig(sb.Path("blobs")), nil)
	if err != nil {
		t.Fatalf("NewNode failed: %v", err)
	}
	if node.Mempool == nil || node.Banlist == nil || node.Fees == nil || node.BlobStore == nil {
		t.Fatalf("expected NewNode to wire every owned component")
	}
	if node.ID == "" {
		t.Fatalf("expected NewNode to assign a node id")
	}
	if ChainHRP != "anim" {
		t.Fatalf("expected NewNode to set the package ChainHRP from config")
	}
}

func TestNodeStartRound(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	node, err := NewNode(testNodeConfig(sb.Path("blobs")), nil)
	if err != nil {
		t.Fatalf("NewNode failed: %v", err)
	}
	if node.CurrentRound() != nil {
		t.Fatalf("expected no active round before StartRound")
	}
	round := node.StartRound(5, time.Now())
	if round.Height != 5 {
		t.Fatalf("unexpected round height: %d", round.Height)
	}
	if node.CurrentRound() != round {
		t.Fatalf("CurrentRound did not return the started round")
	}
}

func TestNodeRunStopsOnContextCancel(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	node, err := NewNode(testNodeConfig(sb.Path("blobs")), nil)
	if err != nil {
		t.Fatalf("NewNode failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		node.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected Run to return after context cancellation")
	}
}
