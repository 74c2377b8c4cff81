// bench - unival benchmark runner
//
// Generates corpora of random values and compares the unival text modes
// with minified JSON:
//   - Bytes on wire
//   - Print and parse throughput
//
// Output: CSV and markdown summary
package main

import (
	"crypto/sha256"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/pkg/errors"
	"lukechampine.com/frand"

	"github.com/Neumenon/unival/chk"
	"github.com/Neumenon/unival/log"
	"github.com/Neumenon/unival/lol"
	"github.com/Neumenon/unival/unival"
)

type args struct {
	Count    int    `arg:"-n,--count" default:"2000" help:"values generated per case"`
	Seed     string `arg:"--seed" default:"unival bench" help:"generator seed"`
	Out      string `arg:"-o,--out" default:"." help:"directory for bench_results.csv and BENCH.md"`
	LogLevel string `arg:"--log-level,env:UNIVAL_LOG_LEVEL" default:"info" help:"log level"`
}

func (args) Description() string {
	return "bench generates random unival corpora and measures text size and throughput"
}

type CaseResult struct {
	Name         string
	Values       int
	CompactBytes int
	PrettyBytes  int
	JSONBytes    int
	BytesPct     float64 // compact saving over JSON
	PrintMBps    float64
	ParseMBps    float64
}

// benchCase describes one corpus.
type benchCase struct {
	name string
	gen  func(rng *frand.RNG) unival.Value
}

var cases = []benchCase{
	{"scalars", func(rng *frand.RNG) unival.Value { return randScalar(rng) }},
	{"flat-vectors", func(rng *frand.RNG) unival.Value {
		items := make([]unival.Value, 1+rng.Intn(32))
		for i := range items {
			items[i] = unival.Int(int64(rng.Uint64n(1 << 40)))
		}
		return unival.Vector(items...)
	}},
	{"records", func(rng *frand.RNG) unival.Value {
		return unival.Composite(
			unival.String("id"), unival.Int(int64(rng.Intn(1_000_000))),
			unival.String("name"), randWord(rng),
			unival.String("score"), unival.Float(rng.Float64()*100),
			unival.String("active"), unival.Bool(rng.Intn(2) == 0),
			unival.String("tags"), unival.Vector(randWord(rng), randWord(rng)),
		)
	}},
	{"nested", func(rng *frand.RNG) unival.Value { return randTree(rng, 4) }},
	{"blobs", func(rng *frand.RNG) unival.Value { return unival.ByteSlice(rng.Bytes(1 + rng.Intn(256))) }},
}

func main() {
	var a args
	arg.MustParse(&a)
	lol.SetLogLevel(a.LogLevel)
	if a.Count < 1 {
		log.F.Ln("count must be positive")
		os.Exit(1)
	}

	seed := sha256.Sum256([]byte(a.Seed))
	log.I.F("unival benchmark runner: %d cases, %d values each", len(cases), a.Count)

	var results []CaseResult
	var totalCompact, totalJSON int
	for _, c := range cases {
		rng := frand.NewCustom(seed[:], 32, 12)
		values := make([]unival.Value, a.Count)
		for i := range values {
			values[i] = c.gen(rng)
		}
		r, err := measure(c.name, values)
		if chk.E(err) {
			continue
		}
		log.D.F("%s: %d bytes compact, %d bytes JSON", r.Name, r.CompactBytes, r.JSONBytes)
		results = append(results, r)
		totalCompact += r.CompactBytes
		totalJSON += r.JSONBytes
	}

	csvPath := filepath.Join(a.Out, "bench_results.csv")
	if csvFile, err := os.Create(csvPath); !chk.E(err) {
		writeCSV(csvFile, results)
		chk.E(csvFile.Close())
		log.I.F("CSV written to: %s", csvPath)
	}

	mdPath := filepath.Join(a.Out, "BENCH.md")
	if mdFile, err := os.Create(mdPath); !chk.E(err) {
		writeMarkdown(mdFile, results, totalCompact, totalJSON, a.Count)
		chk.E(mdFile.Close())
		log.I.F("Markdown written to: %s", mdPath)
	}

	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Cases:         %d\n", len(results))
	fmt.Printf("JSON total:    %d bytes\n", totalJSON)
	fmt.Printf("unival total:  %d bytes\n", totalCompact)
	if totalJSON > 0 {
		fmt.Printf("Bytes saved:   %d (%.1f%%)\n", totalJSON-totalCompact,
			float64(totalJSON-totalCompact)/float64(totalJSON)*100)
	}
}

// measure prints every value in each mode and parses the compact text back,
// checking that it round-trips.
func measure(name string, values []unival.Value) (r CaseResult, err error) {
	r = CaseResult{Name: name, Values: len(values)}
	texts := make([][]byte, len(values))

	start := time.Now()
	for i, v := range values {
		var ok bool
		if texts[i], ok = unival.AppendText(nil, v, unival.Compact); !ok {
			return r, errors.Errorf("%s: value %d cannot be printed", name, i)
		}
		r.CompactBytes += len(texts[i])
	}
	printTime := time.Since(start)

	start = time.Now()
	for i, text := range texts {
		if back := unival.ParseBytes(text); !back.Equal(values[i]) {
			return r, errors.Errorf("%s: value %d does not round-trip: %s", name, i, text)
		}
	}
	parseTime := time.Since(start)

	for _, v := range values {
		pretty, _ := unival.ToString(v, unival.Pretty)
		r.PrettyBytes += len(pretty)
		js, _ := unival.ToString(v, unival.JSONCompact)
		r.JSONBytes += len(js)
	}

	if r.JSONBytes > 0 {
		r.BytesPct = float64(r.JSONBytes-r.CompactBytes) / float64(r.JSONBytes) * 100
	}
	r.PrintMBps = mbps(r.CompactBytes, printTime)
	r.ParseMBps = mbps(r.CompactBytes, parseTime)
	return r, nil
}

func mbps(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds() / 1e6
}

// ============================================================
// Generators
// ============================================================

var words = []string{"alpha", "beta", "gamma", "two words", "null", "x_1", "ünïcode", ""}

func randWord(rng *frand.RNG) unival.Value {
	return unival.String(words[rng.Intn(len(words))])
}

func randScalar(rng *frand.RNG) unival.Value {
	switch rng.Intn(5) {
	case 0:
		return unival.Empty()
	case 1:
		return unival.Bool(rng.Intn(2) == 0)
	case 2:
		return unival.Int(int64(rng.Uint64n(math.MaxUint64)))
	case 3:
		return unival.Float(rng.Float64() * 1e6)
	default:
		return randWord(rng)
	}
}

func randTree(rng *frand.RNG, depth int) unival.Value {
	if depth <= 0 || rng.Intn(3) == 0 {
		return randScalar(rng)
	}
	if rng.Intn(2) == 0 {
		items := make([]unival.Value, rng.Intn(6))
		for i := range items {
			items[i] = randTree(rng, depth-1)
		}
		return unival.Vector(items...)
	}
	pairs := make([]unival.Pair, 1+rng.Intn(5))
	for i := range pairs {
		pairs[i] = unival.P(randWord(rng), randTree(rng, depth-1))
	}
	return unival.MakeComposite(pairs...)
}

// ============================================================
// Reports
// ============================================================

func writeCSV(w io.Writer, results []CaseResult) {
	fmt.Fprintln(w, "name,values,compact_bytes,pretty_bytes,json_bytes,bytes_pct,print_mbps,parse_mbps")
	for _, r := range results {
		fmt.Fprintf(w, "%s,%d,%d,%d,%d,%.1f,%.1f,%.1f\n",
			r.Name, r.Values, r.CompactBytes, r.PrettyBytes, r.JSONBytes, r.BytesPct,
			r.PrintMBps, r.ParseMBps)
	}
}

func writeMarkdown(w io.Writer, results []CaseResult, totalCompact, totalJSON, count int) {
	fmt.Fprintf(w, "# unival Benchmark Results\n\n")
	fmt.Fprintf(w, "**Date:** %s  \n", time.Now().Format(time.DateOnly))
	fmt.Fprintf(w, "**Corpus:** %d generated cases, %d values each  \n\n", len(results), count)

	fmt.Fprintf(w, "## Summary\n\n")
	fmt.Fprintf(w, "| Metric | JSON (minified) | unival compact | Savings |\n")
	fmt.Fprintf(w, "|--------|-----------------|----------------|---------|\n")
	saved := totalJSON - totalCompact
	pct := 0.0
	if totalJSON > 0 {
		pct = float64(saved) / float64(totalJSON) * 100
	}
	fmt.Fprintf(w, "| **Bytes** | %d | %d | %d (%.1f%%) |\n\n", totalJSON, totalCompact, saved, pct)

	sorted := make([]CaseResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ParseMBps > sorted[j].ParseMBps
	})

	fmt.Fprintf(w, "## Throughput\n\n")
	fmt.Fprintf(w, "| Case | Print MB/s | Parse MB/s |\n")
	fmt.Fprintf(w, "|------|------------|------------|\n")
	for _, r := range sorted {
		fmt.Fprintf(w, "| %s | %.1f | %.1f |\n", r.Name, r.PrintMBps, r.ParseMBps)
	}

	fmt.Fprintf(w, "\n## Detailed Results\n\n")
	fmt.Fprintf(w, "| Case | Compact | Pretty | JSON | Bytes %% |\n")
	fmt.Fprintf(w, "|------|---------|--------|------|---------|\n")
	for _, r := range results {
		sign := ""
		if r.BytesPct > 0 {
			sign = "+"
		}
		fmt.Fprintf(w, "| %s | %d | %d | %d | %s%.1f%% |\n",
			r.Name, r.CompactBytes, r.PrettyBytes, r.JSONBytes, sign, r.BytesPct)
	}
}
