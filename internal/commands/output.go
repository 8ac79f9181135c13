// internal/commands/output.go
package hunger

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/k0kubun/pp"

	"github.com/mwiater/hunger/internal/metrics"
	"github.com/mwiater/hunger/internal/predictor"
)

var (
	okText   = color.New(color.FgGreen).SprintFunc()
	warnText = color.New(color.FgYellow).SprintFunc()
	failText = color.New(color.FgRed).SprintFunc()
	infoText = color.New(color.FgCyan).SprintFunc()
)

// predictionText colors a prediction label.
func predictionText(value int) string {
	if value == predictor.NotHungry {
		return okText(predictor.Label(value))
	}
	return warnText(predictor.Label(value))
}

// debugDump pretty-prints v when debug mode is on.
func debugDump(v any) {
	if DebugEnabled() {
		pp.Println(v)
	}
}

// printSnapshot prints the relay and prediction counters.
func printSnapshot(out io.Writer, agg *metrics.Aggregator) {
	if agg == nil {
		return
	}
	snap := agg.Snapshot()
	fmt.Fprintln(out, infoText("Metrics:"))
	fmt.Fprintf(out, "  Windows sent:        %s\n", okText(snap.WindowsSent))
	fmt.Fprintf(out, "  Windows empty:       %d\n", snap.WindowsEmpty)
	fmt.Fprintf(out, "  Windows dropped:     %s\n", warnText(snap.WindowsUnreachable))
	fmt.Fprintf(out, "  Windows failed:      %s\n", failText(snap.WindowsFailed))
	if snap.SamplesPerWindow.Count > 0 {
		fmt.Fprintf(out, "  Samples per window:  %.1f avg (%.0f-%.0f)\n", snap.SamplesPerWindow.Mean, snap.SamplesPerWindow.Min, snap.SamplesPerWindow.Max)
	}
	fmt.Fprintf(out, "  Predictions ok:      %s\n", okText(snap.PredictionsOK))
	fmt.Fprintf(out, "  Predictions failed:  %s\n", failText(snap.PredictionsFailed))
	if snap.LatencyMillis.Count > 0 {
		fmt.Fprintf(out, "  Latency:             last %.0fms, avg %.0fms\n", snap.LatencyMillis.Last, snap.LatencyMillis.Mean)
	}
}
