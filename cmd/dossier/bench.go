package main

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dossierdb/dossier"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run a concurrent load against the database",
	Long: `Write a batch of generated documents through a worker pool, then
run point queries against them, and report throughput and latency
percentiles for both phases.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: runBench,
}

func init() {
	key := "docs"
	benchCmd.Flags().Int(key, 10_000, "number of documents to write")
	key = "reads"
	benchCmd.Flags().Int(key, 10_000, "number of queries after the writes")
	key = "workers"
	benchCmd.Flags().Int(key, 8, "worker pool size")
}

func runBench(cmd *cobra.Command, _ []string) error {
	logger := newLogger()
	ctx := cmd.Context()

	db, err := openDatabase(ctx, 0)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	numDocs := viper.GetInt("docs")
	numReads := viper.GetInt("reads")
	workers := viper.GetInt("workers")

	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(v any) {
		logger.Error("bench worker panicked", "panic", v)
	}))
	if err != nil {
		return err
	}
	defer pool.ReleaseTimeout(3 * time.Second)

	fmt.Printf("bench: %d writes, %d reads, %d workers, database %q\n",
		numDocs, numReads, workers, viper.GetString("db"))

	var wg sync.WaitGroup

	writes := newLatencies(numDocs)
	start := time.Now()
	for n := 0; n < numDocs; n++ {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			t := time.Now()
			_, err := db.Save(ctx, "bench", dossier.M{
				"n":     n,
				"name":  fmt.Sprintf("doc-%d", n),
				"batch": n / 100,
			})
			writes.observe(time.Since(t), err)
		})
		if err != nil {
			wg.Done()
			return err
		}
	}
	wg.Wait()
	printPhase("save", numDocs, time.Since(start), writes)

	reads := newLatencies(numReads)
	start = time.Now()
	for n := 0; n < numReads; n++ {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			t := time.Now()
			_, err := db.Count(ctx, "bench", dossier.M{"n": n % numDocs})
			reads.observe(time.Since(t), err)
		})
		if err != nil {
			wg.Done()
			return err
		}
	}
	wg.Wait()
	printPhase("count", numReads, time.Since(start), reads)

	return nil
}

func printPhase(name string, ops int, elapsed time.Duration, lat *latencies) {
	fmt.Printf("%-8s%d ops in %s\t%.0f ops/sec\t%s\n",
		name, ops, elapsed.Round(time.Millisecond), float64(ops)/elapsed.Seconds(), lat.summary())
	if n := lat.errors(); n > 0 {
		fmt.Printf("%-8s%d errors\n", name, n)
	}
}

// latencies collects per-operation durations across pool workers.
type latencies struct {
	mu   sync.Mutex
	all  []time.Duration
	errs int
}

func newLatencies(capacity int) *latencies {
	return &latencies{all: make([]time.Duration, 0, capacity)}
}

func (l *latencies) observe(d time.Duration, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.errs++
		return
	}
	l.all = append(l.all, d)
}

func (l *latencies) errors() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errs
}

// summary reports latency percentiles over the observed durations.
func (l *latencies) summary() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.all) == 0 {
		return "no samples"
	}
	slices.Sort(l.all)
	pick := func(q float64) time.Duration {
		return l.all[int(q*float64(len(l.all)-1))]
	}
	return fmt.Sprintf("min %s, p50 %s, p95 %s, max %s",
		pick(0), pick(0.5), pick(0.95), pick(1))
}
