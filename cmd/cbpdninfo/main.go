// Command cbpdninfo runs a joint-channel convolutional sparse coding solve on
// a synthetic colour image and prints its iteration statistics.
//
// Usage:
//
//	cbpdninfo [flags] [dictionary-kind ...]
//
// Without arguments it builds a dictionary from all known filter kinds.
//
// Examples:
//
//	cbpdninfo
//	cbpdninfo -lambda 0.05 -mu 0.1 delta gauss
//	cbpdninfo -config opts.yaml -size 64 -every 10
//	cbpdninfo -metrics -v
//	cbpdninfo -list
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/cwbudde/algo-sparse/measure/quality"
	"github.com/cwbudde/algo-sparse/sparse/admm"
	"github.com/cwbudde/algo-sparse/sparse/cbpdn"
	"github.com/cwbudde/algo-sparse/sparse/telemetry"
)

type filterKind struct {
	name string
	gen  func(k int) []float64
}

var registry = []filterKind{
	{"delta", deltaFilter},
	{"box", boxFilter},
	{"gauss", gaussFilter},
	{"dx", gradientFilter(false)},
	{"dy", gradientFilter(true)},
	{"laplace", laplaceFilter},
}

func main() {
	size := flag.Int("size", 32, "image edge length in pixels")
	kernel := flag.Int("kernel", 5, "filter edge length in pixels")
	lambda := flag.Float64("lambda", 0.05, "l1 regularization weight")
	mu := flag.Float64("mu", 0.05, "l2,1 joint regularization weight")
	config := flag.String("config", "", "YAML solver options file")
	maxIter := flag.Int("maxiter", 0, "iteration cap (overrides config)")
	every := flag.Int("every", 1, "print every n-th iteration")
	metrics := flag.Bool("metrics", false, "print collected Prometheus metrics")
	list := flag.Bool("list", false, "list available filter kinds")
	verbose := flag.Bool("v", false, "log solver progress to stderr")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cbpdninfo [flags] [dictionary-kind ...]\n\n")
		fmt.Fprintf(os.Stderr, "Solves a joint-channel CBPDN problem on a synthetic colour image.\n")
		fmt.Fprintf(os.Stderr, "Without arguments, the dictionary holds every filter kind.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  cbpdninfo -lambda 0.05 -mu 0.1 delta gauss\n")
		fmt.Fprintf(os.Stderr, "  cbpdninfo -config opts.yaml -every 10\n")
		fmt.Fprintf(os.Stderr, "  cbpdninfo -list\n")
	}
	flag.Parse()

	if *list {
		printList()
		return
	}

	if *size < 2 || *kernel < 1 || *kernel > *size {
		fmt.Fprintf(os.Stderr, "error: need 2 <= size and 1 <= kernel <= size\n")
		os.Exit(2)
	}

	kinds := resolveKinds(flag.Args())
	if len(kinds) == 0 {
		fmt.Fprintf(os.Stderr, "error: no matching filter kinds\n")
		os.Exit(1)
	}

	opts, err := loadOptions(*config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *maxIter > 0 {
		opts.MaxIter = *maxIter
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	reg := prometheus.NewRegistry()

	collector, err := telemetry.NewCollector(reg, "cbpdninfo")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, kinds, *size, *kernel, *lambda, *mu, *every, opts, logger, collector); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *metrics {
		printMetrics(reg)
	}
}

func printList() {
	names := make([]string, len(registry))
	for i, k := range registry {
		names[i] = k.name
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Println(n)
	}
}

func resolveKinds(names []string) []filterKind {
	if len(names) == 0 {
		return registry
	}

	byName := make(map[string]filterKind, len(registry))
	for _, k := range registry {
		byName[k.name] = k
	}

	var result []filterKind
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		k, ok := byName[name]
		if !ok {
			fmt.Fprintf(os.Stderr, "warning: unknown filter kind %q (use -list to see available)\n", name)
			continue
		}
		result = append(result, k)
	}
	return result
}

func loadOptions(path string) (cbpdn.Options, error) {
	if path == "" {
		return cbpdn.DefaultOptions(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return cbpdn.Options{}, err
	}
	defer f.Close()

	return cbpdn.LoadOptions(f)
}

func run(ctx context.Context, kinds []filterKind, size, kernel int, lambda, mu float64, every int,
	opts cbpdn.Options, logger *slog.Logger, obs admm.Observer,
) error {
	filters := make([]float64, 0, len(kinds)*kernel*kernel)
	for _, k := range kinds {
		filters = append(filters, normalize(k.gen(kernel))...)
	}

	dict, err := cbpdn.NewDictionary(filters, len(kinds), 1, []int{kernel, kernel})
	if err != nil {
		return err
	}

	sig, err := cbpdn.NewSignal(colourImage(size), 1, 3, []int{size, size})
	if err != nil {
		return err
	}

	s, err := cbpdn.New(dict, sig, lambda, mu,
		cbpdn.WithOptions(opts),
		cbpdn.WithLogger(logger),
		cbpdn.WithObserver(obs),
	)
	if err != nil {
		return err
	}

	res, err := s.Solve(ctx)
	if err != nil {
		return err
	}

	printStats(s.Statistics(), every)

	rec, err := s.Reconstruct(res.Coef)
	if err != nil {
		return err
	}

	report, err := quality.Compare(sig.Data(), rec.Data(), 0)
	if err != nil {
		return err
	}

	nz := res.Coef.NonZero()
	total := len(res.Coef.Data())

	fmt.Printf("\nstate: %s after %d iterations (rho=%.4g)\n", res.State, res.Iterations, res.Rho)
	fmt.Printf("grid: %v, filters: %d, non-zero: %d of %d (%.2f%%)\n",
		s.Grid(), len(kinds), nz, total, 100*float64(nz)/float64(total))
	fmt.Printf("reconstruction: PSNR %.2f dB, SNR %.2f dB, max error %.4g\n",
		report.PSNR_dB, report.SNR_dB, report.MaxAbsErr)
	fmt.Printf("time: setup %v, solve %v, reconstruct %v\n",
		s.Elapsed(cbpdn.PhaseSetup), s.Elapsed(cbpdn.PhaseSolve), s.Elapsed(cbpdn.PhaseReconstruct))

	return nil
}

func printStats(stats []admm.IterationStats, every int) {
	if every < 1 {
		every = 1
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Itn\tFnc\tDFid\tRegl1\tRegl21\tr\ts\tρ\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}
	if _, err := fmt.Fprintf(tw, "---\t---\t----\t-----\t------\t-\t-\t-\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}

	for i, st := range stats {
		if i%every != 0 && i != len(stats)-1 {
			continue
		}

		if _, err := fmt.Fprintf(tw, "%d\t%.4e\t%.4e\t%.4e\t%.4e\t%.3e\t%.3e\t%.3e\n",
			st.Iter, st.ObjFun, st.DFid, st.RegL1, st.RegL21, st.PrimalRsdl, st.DualRsdl, st.Rho,
		); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output row: %v\n", err)
			return
		}
	}
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

func printMetrics(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: gather metrics: %v\n", err)
		return
	}

	fmt.Println()
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fmt.Printf("%s%s %s\n", mf.GetName(), labels(m.GetLabel()), metricValue(mf.GetType(), m))
		}
	}
}

func labels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%s=%q", p.GetName(), p.GetValue())
	}

	return "{" + strings.Join(parts, ",") + "}"
}

func metricValue(t dto.MetricType, m *dto.Metric) string {
	switch t {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%g", m.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%g", m.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("count=%d sum=%g", h.GetSampleCount(), h.GetSampleSum())
	default:
		return "?"
	}
}

func normalize(f []float64) []float64 {
	var sq float64
	for _, v := range f {
		sq += v * v
	}
	if sq == 0 {
		return f
	}
	n := math.Sqrt(sq)
	for i := range f {
		f[i] /= n
	}
	return f
}
