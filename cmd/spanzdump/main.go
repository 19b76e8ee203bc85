// Command spanzdump runs a synthetic nested workload through a tracer and
// prints the drained chunk as JSON. With a fixed seed the identifiers are
// reproducible, which makes it handy for checking encoder output.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/zoobzio/spanz"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	v := spanz.NewViper()
	// Flag defaults only apply when viper has no default of its own.
	v.SetDefault(spanz.KeyDebugPRNGSeed, 42)
	v.SetDefault(spanz.KeyLogLevel, "warn")
	v.SetDefault("depth", 3)
	v.SetDefault("breadth", 1)

	cmd := &cobra.Command{
		Use:   "spanzdump",
		Short: "Trace a synthetic nested workload and dump the spans as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := spanz.LoadConfig(v)
			if err != nil {
				return err
			}
			logger, err := spanz.NewLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			return run(cmd, cfg, logger, v.GetInt("depth"), v.GetInt("breadth"))
		},
	}

	flags := cmd.Flags()
	flags.Int64(spanz.KeyDebugPRNGSeed, 42, "fixed identifier seed (0 seeds from the platform)")
	flags.String(spanz.KeyTimingPolicy, spanz.StopOnClose.String(), "stop_on_close or manual")
	flags.String(spanz.KeyLogLevel, "warn", "log level")
	flags.Int("depth", 3, "nesting depth of each tree")
	flags.Int("breadth", 1, "number of root spans")
	for _, name := range []string{spanz.KeyDebugPRNGSeed, spanz.KeyTimingPolicy, spanz.KeyLogLevel, "depth", "breadth"} {
		mustBindPFlag(v, name, cmd)
	}
	return cmd
}

func mustBindPFlag(v *viper.Viper, key string, cmd *cobra.Command) {
	if err := v.BindPFlag(key, cmd.Flags().Lookup(key)); err != nil {
		panic(err)
	}
}

func run(cmd *cobra.Command, cfg spanz.Config, logger *zap.Logger, depth, breadth int) error {
	tracer := spanz.New[*spanz.SpanData](
		spanz.NewDataHost(),
		spanz.MsgpEncoder[*spanz.SpanData]{},
		spanz.WithConfig(cfg),
		spanz.WithLogger(logger),
	)
	defer tracer.Close()

	for b := 0; b < breadth; b++ {
		for d := 0; d < depth; d++ {
			sp := tracer.StartSpan()
			sp.Payload.Name = "level." + strings.Repeat("child.", d) + "op"
			sp.Payload.Service = "spanzdump"
			sp.Payload.Resource = fmt.Sprintf("tree-%d", b)
			sp.Payload.SetMetric("depth", float64(d))
		}
		for d := 0; d < depth; d++ {
			tracer.FinishSpan()
		}
	}

	chunk, err := tracer.Flush()
	if err != nil {
		return err
	}
	if err := spanz.ChunkJSON(cmd.OutOrStdout(), chunk); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout())
	return err
}
