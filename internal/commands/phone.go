// internal/commands/phone.go
package hunger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwiater/hunger/internal/appconfig"
	"github.com/mwiater/hunger/internal/companion"
	"github.com/mwiater/hunger/internal/logging"
	"github.com/mwiater/hunger/internal/predictor"
	"github.com/mwiater/hunger/internal/predictorfactory"
	"github.com/mwiater/hunger/internal/relay"
	"github.com/mwiater/hunger/internal/session"
	"github.com/mwiater/hunger/internal/tui"
)

var (
	phoneMock     bool
	phoneHeadless bool

	// runTUI is a function alias to tui.Run for starting the interaction screens.
	runTUI = tui.Run
)

// phoneCmd plays the phone: receive windows, predict, and ask the user.
var phoneCmd = &cobra.Command{
	Use:   "phone",
	Short: "Receive windows, request predictions and run the answer flow",
	Long: `The 'phone' command listens for windows from the watch, asks the predictor
for a classification and walks the user through the prompt, follow-up and
results screens. With --mock it runs standalone and invents predictions.
With --headless it prints predictions instead of starting the terminal UI.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *GetConfig()
		if phoneMock {
			cfg.Predictor.Kind = appconfig.PredictorMock
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		agg := buildAggregator(&cfg)
		p, err := predictorfactory.New(&cfg, agg)
		if err != nil {
			return err
		}
		debugDump(cfg)

		var inbox relay.Inbox
		if !phoneMock {
			inbox, err = buildInbox(&cfg)
			if err != nil {
				return err
			}
			defer inbox.Close()
		}

		if phoneHeadless {
			if inbox == nil {
				return errors.New("--headless needs a relay; it cannot be combined with --mock")
			}
			runHeadless(ctx, cmd.OutOrStdout(), p, inbox)
			printSnapshot(cmd.OutOrStdout(), agg)
			return nil
		}

		err = runInteractive(ctx, &cfg, p, inbox, phoneMock, nil)
		printSnapshot(cmd.OutOrStdout(), agg)
		return err
	},
}

// runInteractive starts the terminal UI with logging redirected to the log file
// only. start, when set, runs after the redirect and before the UI.
func runInteractive(ctx context.Context, cfg *appconfig.Config, p predictor.Predictor, inbox relay.Inbox, mock bool, start func()) error {
	if err := logging.InitFileOnly(cfg.LogFilePath()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logging.Init(cfg.LogFilePath()) }()

	// Producers that log must not start until stdout is off the log.
	if start != nil {
		start()
	}

	recorder := buildRecorder(cfg)
	defer recorder.Close()

	rule, err := session.ParseRule(cfg.AgreementRule())
	if err != nil {
		return err
	}
	return runTUI(ctx, tui.Options{
		Predictor: p,
		Inbox:     inbox,
		Mock:      mock,
		Rule:      rule,
		Recorder:  recorder,
		Rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	})
}

// runHeadless prints one line per window and prediction until ctx ends.
func runHeadless(ctx context.Context, out io.Writer, p predictor.Predictor, inbox relay.Inbox) {
	var mu sync.Mutex
	c := companion.New(p, func(r companion.Result) {
		mu.Lock()
		defer mu.Unlock()
		if r.Err != nil {
			fmt.Fprintf(out, "%s %s: %v\n", failText("prediction failed"), r.Window.TS, r.Err)
			return
		}
		fmt.Fprintf(out, "%s %s: %s\n", infoText("prediction"), r.Window.TS, predictionText(r.Prediction))
	})
	c.OnWindow = func(msg relay.Message) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, "%s %d samples @ %s\n", infoText("window"), len(msg.HR), msg.TS)
	}
	fmt.Fprintln(out, infoText("phone: waiting for windows (ctrl+c to stop)"))
	c.Run(ctx, inbox)
}

func init() {
	phoneCmd.Flags().BoolVar(&phoneMock, "mock", false, "run standalone with random predictions")
	phoneCmd.Flags().BoolVar(&phoneHeadless, "headless", false, "print predictions instead of starting the UI")
	rootCmd.AddCommand(phoneCmd)
}
