// internal/commands/demo.go
package hunger

import (
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwiater/hunger/internal/predictorfactory"
	"github.com/mwiater/hunger/internal/relay"
	"github.com/mwiater/hunger/internal/sampler"
)

var (
	demoInterval time.Duration
	demoHeadless bool
)

// demoCmd joins a watch and a phone in one process over an in-memory relay.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the watch and the phone together over an in-memory relay",
	Long:  `The 'demo' command starts a simulated watch and the phone flow in the same process, connected by a loopback relay. Predictions come from the configured predictor; pass --predictor mock to stay offline.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *GetConfig()
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		agg := buildAggregator(&cfg)
		p, err := predictorfactory.New(&cfg, agg)
		if err != nil {
			return err
		}

		source, stopSource, err := buildSource(ctx, &cfg)
		if err != nil {
			return err
		}
		defer stopSource()

		loop := relay.NewLoopback(inboxBuffer)
		s := sampler.New(source, loop, demoInterval, cfg.SampleSpan())
		if agg != nil {
			s.Recorder = agg
		}

		var wg sync.WaitGroup
		startSampler := func() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.Tick(ctx)
				s.Run(ctx)
			}()
		}
		defer func() {
			stop()
			wg.Wait()
			_ = loop.Close()
		}()

		if demoHeadless {
			startSampler()
			runHeadless(ctx, cmd.OutOrStdout(), p, loop)
			printSnapshot(cmd.OutOrStdout(), agg)
			return nil
		}
		err = runInteractive(ctx, &cfg, p, loop, false, startSampler)
		printSnapshot(cmd.OutOrStdout(), agg)
		return err
	},
}

func init() {
	demoCmd.Flags().DurationVar(&demoInterval, "interval", 10*time.Second, "sampling interval for the simulated watch")
	demoCmd.Flags().BoolVar(&demoHeadless, "headless", false, "print predictions instead of starting the UI")
	rootCmd.AddCommand(demoCmd)
}
