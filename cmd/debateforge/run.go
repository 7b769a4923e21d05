package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/debateforge"
	"github.com/hupe1980/debateforge/corpus"
	"github.com/hupe1980/debateforge/logging"
	"github.com/hupe1980/debateforge/provider"
	anthropicprovider "github.com/hupe1980/debateforge/provider/anthropic"
	openaiprovider "github.com/hupe1980/debateforge/provider/openai"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a debate session over a product corpus",
	Long: `Run loads a product corpus from a YAML file, starts a debate session and
waits for it to reach a terminal status. The exported session snapshot
(taxonomy, round history and concept document) is written as JSON to
stdout or to --out.

The seeker and builder roles can be backed by different providers
(openai, anthropic, mock).`,
	RunE: runDebate,
}

func init() {
	runCmd.Flags().String("corpus", "", "corpus YAML file (required)")
	runCmd.Flags().String("market", "", "core market framing (default: selected category)")
	runCmd.Flags().String("category", "", "category to debate (default: richest corpus category)")
	runCmd.Flags().Int64("seed", 0, "session seed for reproducible runs")
	runCmd.Flags().Float64("temperature", 0.8, "sampling temperature for both roles")
	runCmd.Flags().Int("max-rounds", 6, "round budget before giving up")
	runCmd.Flags().Int("pool-size", 4, "concurrent builder attacks per round")
	runCmd.Flags().Duration("call-timeout", 60*time.Second, "per-call provider timeout")
	runCmd.Flags().String("seeker", "mock", "seeker provider: openai, anthropic or mock")
	runCmd.Flags().String("builder", "mock", "builder provider: openai, anthropic or mock")
	runCmd.Flags().String("out", "", "write the session snapshot to this file instead of stdout")
	_ = runCmd.MarkFlagRequired("corpus")

	_ = viper.BindPFlag("seeker", runCmd.Flags().Lookup("seeker"))
	_ = viper.BindPFlag("builder", runCmd.Flags().Lookup("builder"))
	_ = viper.BindPFlag("pool_size", runCmd.Flags().Lookup("pool-size"))
	_ = viper.BindPFlag("call_timeout", runCmd.Flags().Lookup("call-timeout"))

	rootCmd.AddCommand(runCmd)
}

func newProvider(name string) (provider.Provider, error) {
	switch name {
	case "openai":
		return openaiprovider.New(), nil
	case "anthropic":
		return anthropicprovider.New(), nil
	case "mock":
		return provider.NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

func runDebate(cmd *cobra.Command, args []string) error {
	corpusPath, _ := cmd.Flags().GetString("corpus")
	market, _ := cmd.Flags().GetString("market")
	category, _ := cmd.Flags().GetString("category")
	seed, _ := cmd.Flags().GetInt64("seed")
	temperature, _ := cmd.Flags().GetFloat64("temperature")
	maxRounds, _ := cmd.Flags().GetInt("max-rounds")
	out, _ := cmd.Flags().GetString("out")
	verbose, _ := cmd.Flags().GetBool("verbose")

	products, err := corpus.LoadFile(corpusPath)
	if err != nil {
		return err
	}

	seekerProv, err := newProvider(viper.GetString("seeker"))
	if err != nil {
		return err
	}
	builderProv, err := newProvider(viper.GetString("builder"))
	if err != nil {
		return err
	}

	var logger logging.Logger = logging.NoOpLogger{}
	if verbose {
		logger = logging.NewLogger(&logging.LoggerConfig{
			Level:     logging.LogLevelDebug,
			Format:    "text",
			Output:    os.Stderr,
			Component: "debateforge",
		})
	}

	forge := debateforge.New(func(o *debateforge.Options) {
		o.SeekerProvider = seekerProv
		o.BuilderProvider = builderProv
		o.Logger = logger
		o.PoolSize = viper.GetInt("pool_size")
		o.CallTimeout = viper.GetDuration("call_timeout")
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	id, err := forge.Start(ctx, debateforge.StartParams{
		CoreMarket:  market,
		Category:    category,
		Corpus:      products,
		Seed:        seed,
		Temperature: temperature,
		MaxRounds:   maxRounds,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "session %s started\n", id)

	go func() {
		<-ctx.Done()
		_ = forge.Cancel(id)
	}()

	sess, err := forge.Wait(context.Background(), id)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "session %s finished: %s after %d rounds\n", id, sess.Status, len(sess.Rounds))

	snap, err := forge.Export(id)
	if err != nil {
		return err
	}
	data, err := snap.MarshalIndent()
	if err != nil {
		return err
	}
	if out != "" {
		return os.WriteFile(out, append(data, '\n'), 0o644)
	}
	fmt.Println(string(data))
	return nil
}
