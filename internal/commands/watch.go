// internal/commands/watch.go
package hunger

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mwiater/hunger/internal/logging"
	"github.com/mwiater/hunger/internal/sampler"
)

// watchCmd plays the wearable: sample windows and relay them to the phone.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sample heart-rate windows and relay them to the phone",
	Long:  `The 'watch' command reads the configured heart-rate source every sampling interval and sends the trailing window to the phone over the configured relay. Windows are dropped when the phone is not reachable.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		source, stopSource, err := buildSource(ctx, cfg)
		if err != nil {
			return err
		}
		defer stopSource()

		link, closeLink, err := buildLink(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeLink()

		agg := buildAggregator(cfg)
		s := sampler.New(source, link, cfg.SampleInterval(), cfg.SampleSpan())
		if agg != nil {
			s.Recorder = agg
		}
		debugDump(cfg)

		fmt.Fprintf(cmd.OutOrStdout(), "%s relaying every %s (window %s) over %s\n", infoText("watch:"), cfg.SampleInterval(), cfg.SampleSpan(), cfg.Transport())
		logging.LogEvent("[WATCH] started: source=%s transport=%s", cfg.SensorSource(), cfg.Transport())
		s.Run(ctx)

		printSnapshot(cmd.OutOrStdout(), agg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
