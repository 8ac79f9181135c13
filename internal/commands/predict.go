// internal/commands/predict.go
package hunger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwiater/hunger/internal/heartrate"
	"github.com/mwiater/hunger/internal/predictor"
	"github.com/mwiater/hunger/internal/predictorfactory"
)

var (
	predictHR        string
	predictTimestamp string
)

// predictCmd sends one window to the predictor and prints the answer.
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Send one heart-rate window to the predictor",
	Long:  `The 'predict' command posts a single window to the configured predictor and prints the classification. Useful for checking the endpoint without a watch.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		samples, err := parseSamples(predictHR)
		if err != nil {
			return err
		}
		if len(samples) == 0 {
			return errors.New("--hr needs at least one sample")
		}
		ts := predictTimestamp
		if ts == "" {
			ts = heartrate.FormatTimestamp(time.Now())
		} else if _, err := heartrate.ParseTimestamp(ts); err != nil {
			return fmt.Errorf("invalid --timestamp %q: %w", ts, err)
		}

		cfg := GetConfig()
		p, err := predictorfactory.New(cfg, nil)
		if err != nil {
			return err
		}

		req := predictor.Request{HR: samples, Timestamp: ts}
		debugDump(req)
		summary := heartrate.Summarize(samples)
		debugDump(summary)

		value, err := p.Predict(cmd.Context(), req)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %v\n", failText("prediction failed:"), err)
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Window:     %d samples, mean %.1f bpm @ %s\n", summary.Count, summary.Mean, ts)
		fmt.Fprintf(cmd.OutOrStdout(), "Prediction: %d (%s)\n", value, predictionText(value))
		return nil
	},
}

// parseSamples reads a comma-separated list of BPM values.
func parseSamples(raw string) ([]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []float64{}, nil
	}
	parts := strings.Split(raw, ",")
	samples := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --hr value %q: %w", part, err)
		}
		samples = append(samples, v)
	}
	return samples, nil
}

func init() {
	predictCmd.Flags().StringVar(&predictHR, "hr", "", "comma-separated BPM samples (e.g., 70,72,75)")
	predictCmd.Flags().StringVar(&predictTimestamp, "timestamp", "", "window end time in RFC 3339 (default now)")
	rootCmd.AddCommand(predictCmd)
}
