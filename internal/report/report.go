// Package report renders optimization results: a value-per-step plot of one
// or more trajectories and a text summary.
package report

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/copyleftdev/localopt/internal/optimization"
)

// Default plot size
const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

// Series is one labelled trajectory
type Series struct {
	Label  string
	Result *optimization.OptimizationResult
}

// Summary condenses a result for display
type Summary struct {
	Label       string
	Algorithm   string
	Steps       int
	Evaluations int64
	Duration    time.Duration
	Initial     float64
	Final       float64
	Best        float64
	BestPoint   []float64

	// Mean and StdDev of the recorded values
	Mean   float64
	StdDev float64
}

// Summarize computes the summary of one series
func Summarize(s Series) Summary {
	r := s.Result
	values := finite(r.Values())

	sum := Summary{
		Label:       s.Label,
		Algorithm:   r.Algorithm,
		Steps:       r.Iterations,
		Evaluations: r.Evaluations,
		Duration:    r.Duration,
		Initial:     math.NaN(),
		Final:       math.NaN(),
		Mean:        math.NaN(),
		StdDev:      math.NaN(),
	}
	if len(r.History) > 0 {
		sum.Initial = r.History[0].Solution.Value
	}
	if r.FinalSolution != nil {
		sum.Final = r.FinalSolution.Value
	}
	if best := r.Best(); best != nil {
		sum.Best = best.Value
		sum.BestPoint = append([]float64(nil), best.Parameters...)
	}
	if len(values) > 0 {
		sum.Mean = stat.Mean(values, nil)
	}
	if len(values) > 1 {
		sum.StdDev = stat.StdDev(values, nil)
	}
	return sum
}

// WriteSummary writes one table row per series
func WriteSummary(w io.Writer, series []Series) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tALGORITHM\tSTEPS\tEVALS\tINITIAL\tFINAL\tBEST\tBEST POINT\tMEAN\tSTDDEV\tDURATION")
	for _, s := range series {
		sum := Summarize(s)
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.6g\t%.6g\t%.6g\t%s\t%.6g\t%.6g\t%s\n",
			sum.Label, sum.Algorithm, sum.Steps, sum.Evaluations,
			sum.Initial, sum.Final, sum.Best, formatPoint(sum.BestPoint),
			sum.Mean, sum.StdDev, sum.Duration)
	}
	return tw.Flush()
}

// Plot draws the objective value against the step index, one line per series
func Plot(title string, series []Series) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("no series to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "step"
	p.Y.Label.Text = "objective value"
	p.Add(plotter.NewGrid())

	for i, s := range series {
		xys := make(plotter.XYs, 0, len(s.Result.History))
		for _, eval := range s.Result.History {
			v := eval.Solution.Value
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			xys = append(xys, plotter.XY{X: float64(eval.Iteration), Y: v})
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Label, err)
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i)
		p.Add(line)
		p.Legend.Add(s.Label, line)
	}
	p.Legend.Top = true

	return p, nil
}

// SavePlot writes the plot to path; the extension selects the format
func SavePlot(path, title string, series []Series) error {
	p, err := Plot(title, series)
	if err != nil {
		return err
	}
	return p.Save(DefaultWidth, DefaultHeight, path)
}

// WritePlot encodes the plot to w in the given format (png, svg, pdf, ...)
func WritePlot(w io.Writer, format, title string, series []Series) error {
	p, err := Plot(title, series)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(DefaultWidth, DefaultHeight, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// FormatOf returns the image format implied by a file name
func FormatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func formatPoint(x []float64) string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = fmt.Sprintf("%.4g", v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
