package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"animica-core/core"
	"animica-core/pkg/config"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{Use: "animica-node"}
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(configCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "boot an animica node and run its maintenance loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(env)
			if err != nil {
				return err
			}

			log := logrus.New()
			level, err := logrus.ParseLevel(cfg.Logging.Level)
			if err != nil {
				level = logrus.InfoLevel
			}
			log.SetLevel(level)

			nodeCfg, err := toNodeConfig(cfg)
			if err != nil {
				return err
			}

			node, err := core.NewNode(nodeCfg, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.WithFields(logrus.Fields{"chain_id": nodeCfg.ChainID, "node_id": node.ID}).Info("animica node starting")
			node.Run(ctx, 1*time.Second)
			log.Info("animica node stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "environment overlay to merge on top of the default config")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}
			fmt.Printf("%+v\n", cfg)
			return nil
		},
	}
	return cmd
}

// toNodeConfig translates the viper-loaded Config into core.NodeConfig,
// the boundary where raw YAML sections become the typed policy structs
// every core component expects.
func toNodeConfig(cfg *config.Config) (core.NodeConfig, error) {
	perTypeCaps := make(map[core.ProofType]float64, len(cfg.PoIES.PerTypeCaps))
	calibration := make(map[core.ProofType]core.PsiCalibration, len(cfg.PoIES.PerTypeCaps))
	for name, capVal := range cfg.PoIES.PerTypeCaps {
		pt, ok := proofTypeByName(name)
		if !ok {
			continue
		}
		perTypeCaps[pt] = capVal
		calibration[pt] = core.PsiCalibration{Alpha: 1.0, Cap: capVal}
	}

	weights := make(map[core.ProofType]float64, len(cfg.PoIES.Weights))
	for name, w := range cfg.PoIES.Weights {
		pt, ok := proofTypeByName(name)
		if !ok {
			continue
		}
		weights[pt] = w
	}

	modulus := new(big.Int)
	if cfg.Randomness.VDFModulusHex != "" {
		if _, ok := modulus.SetString(cfg.Randomness.VDFModulusHex, 16); !ok {
			return core.NodeConfig{}, fmt.Errorf("invalid vdf_modulus_hex")
		}
	}

	return core.NodeConfig{
		ChainID:  cfg.Chain.ID,
		ChainHRP: cfg.Chain.HRP,
		DataDir:  cfg.Chain.DataDir,
		Mempool: core.MempoolPolicy{
			ChainID:      cfg.Chain.ID,
			MaxTxSize:    cfg.Mempool.MaxTxSizeBytes,
			MaxPoolBytes: cfg.Mempool.MaxPoolBytes,
			MaxPerSender: cfg.Mempool.MaxPerSender,
			MinRBFBump:   cfg.Mempool.MinRBFBump,
			OrphanTTL:    config.Seconds(cfg.Mempool.OrphanTTLSec),
		},
		FeeWatermark: core.FeeWatermarkPolicy{
			EMAHalfLifeSamples: cfg.FeeWatermark.EMAHalfLifeSamples,
			Quantile:           cfg.FeeWatermark.Quantile,
			MaxStepUp:          cfg.FeeWatermark.MaxStepUp,
			MaxStepDown:        cfg.FeeWatermark.MaxStepDown,
			HistogramBuckets:   cfg.FeeWatermark.HistogramBuckets,
			BucketWidth:        cfg.FeeWatermark.BucketWidthWei,
			MinFloor:           cfg.FeeWatermark.MinFloorWei,
		},
		Ban: core.BanPolicy{
			LowFeeBan:          config.Seconds(cfg.Ban.LowFeeBanSec),
			SpamBan:            config.Seconds(cfg.Ban.SpamBanSec),
			Window:             config.Seconds(cfg.Ban.WindowSec),
			MaxRejectsInWindow: cfg.Ban.MaxRejectsInWindow,
		},
		PoIES: core.PoIESPolicy{
			PerTypeCaps: perTypeCaps,
			GammaCap:    cfg.PoIES.GammaCap,
			EscortQ:     cfg.PoIES.EscortQ,
			Calibration: calibration,
			Weights:     weights,
			Version:     cfg.PoIES.PolicyVersion,
		},
		DASampling: core.DASamplingPolicy{
			TargetPFail: cfg.DASampling.TargetPFail,
			Approx:      cfg.DASampling.Approx,
		},
		Randomness: core.RandomnessPolicy{
			CommitWindow: config.Seconds(cfg.Randomness.CommitWindowSec),
			RevealWindow: config.Seconds(cfg.Randomness.RevealWindowSec),
			VDFWindow:    config.Seconds(cfg.Randomness.VDFWindowSec),
			VDF: core.VDFParams{
				Modulus:    modulus,
				Iterations: cfg.Randomness.VDFIterations,
			},
		},
	}, nil
}

func proofTypeByName(name string) (core.ProofType, bool) {
	switch name {
	case "hash":
		return core.ProofHash, true
	case "ai":
		return core.ProofAI, true
	case "quantum":
		return core.ProofQuantum, true
	case "storage":
		return core.ProofStorage, true
	case "vdf":
		return core.ProofVDF, true
	default:
		return 0, false
	}
}
