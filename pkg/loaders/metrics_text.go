package loaders

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/df07/go-audio-propagation/pkg/metrics"
)

// WriteMetricsText writes one row of acoustic parameters per band as an
// aligned table
func WriteMetricsText(w io.Writer, centers []float64, bands []metrics.Metrics) error {
	if len(centers) != len(bands) {
		return fmt.Errorf("metrics for %d bands, %d centers given", len(bands), len(centers))
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "band (Hz)\tRT60 (s)\tEDT (s)\tT20 (s)\tT30 (s)\tDRR (dB)\tC50 (dB)\tC80 (dB)\tD50\tTS (ms)\t")
	for i, m := range bands {
		fmt.Fprintf(tw, "%.0f\t%.3f\t%.3f\t%.3f\t%.3f\t%s\t%s\t%s\t%.3f\t%.1f\t\n",
			centers[i], m.RT60, m.EDT, m.T20, m.T30, db(m.DRR), db(m.C50), db(m.C80), m.D50, m.TS*1000)
	}
	return tw.Flush()
}

func db(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return fmt.Sprintf("%.2f", v)
}
