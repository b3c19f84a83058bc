package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/replacement/monitoring"
	"github.com/sarchlab/replacement/recording"
	"github.com/sarchlab/replacement/replay"
)

var (
	numWays     int
	numSets     int
	blockSize   int
	strategy    string
	record      bool
	dbName      string
	monitorFlag bool
	portNumber  int
	openBrowser bool
)

var rootCmd = &cobra.Command{
	Use:   "replay [trace file]",
	Short: "Replay an address trace through a cache replacement engine",
	Long: `Replay reads a trace of memory addresses (one per line, hex or ` +
		`decimal, # comments allowed) and drives a set-associative ` +
		`replacement policy engine with it. Pass "-" to read the trace ` +
		`from stdin.`,
	Args: cobra.ExactArgs(1),
	Run:  run,
}

func init() {
	rootCmd.Flags().IntVar(&numWays, "ways", 4,
		"number of ways per set, must be a power of two")
	rootCmd.Flags().IntVar(&numSets, "sets", 64,
		"number of sets")
	rootCmd.Flags().IntVar(&blockSize, "block-size", 64,
		"cache line size in bytes")
	rootCmd.Flags().StringVar(&strategy, "strategy", "plru",
		"replacement strategy, plru or random")
	rootCmd.Flags().BoolVar(&record, "record", false,
		"record per-access decisions into a SQLite database")
	rootCmd.Flags().StringVar(&dbName, "db", "",
		"database name for --record, without the .sqlite3 suffix")
	rootCmd.Flags().BoolVar(&monitorFlag, "monitor", false,
		"serve engine state over HTTP while replaying")
	rootCmd.Flags().IntVar(&portNumber, "port", 0,
		"port for --monitor, random if unset")
	rootCmd.Flags().BoolVar(&openBrowser, "browser", false,
		"open the monitor address in a browser")
}

// Execute runs the root command.
func Execute() {
	// A .env file can preset REPLAY_DB; command line flags win.
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func run(_ *cobra.Command, args []string) {
	replayer := buildReplayer()

	if monitorFlag {
		startMonitor(replayer)
	}

	trace, closeTrace := openTrace(args[0])
	defer closeTrace()

	err := replayer.Run(trace)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	printStats(replayer)
}

func buildReplayer() *replay.Replayer {
	builder := replay.MakeBuilder().
		WithNumWays(numWays).
		WithNumSets(numSets).
		WithBlockSize(blockSize).
		WithReplaceStrategy(strategy)

	if record {
		name := dbName
		if name == "" {
			name = os.Getenv("REPLAY_DB")
		}

		builder = builder.WithRecorder(recording.NewRecorder(name))
	}

	return builder.Build("Replayer")
}

func startMonitor(replayer *replay.Replayer) {
	monitor := monitoring.NewMonitor()

	if portNumber != 0 {
		monitor = monitor.WithPortNumber(portNumber)
	}

	if openBrowser {
		monitor = monitor.WithBrowser()
	}

	monitor.RegisterComponent(replayer)
	monitor.RegisterComponent(replayer.Engine())
	monitor.StartServer()
}

func openTrace(path string) (io.Reader, func()) {
	if path == "-" {
		return os.Stdin, func() {}
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	return f, func() { f.Close() }
}

func printStats(replayer *replay.Replayer) {
	stats := replayer.Stats()

	hitRate := 0.0
	if stats.Accesses > 0 {
		hitRate = float64(stats.Hits) / float64(stats.Accesses)
	}

	fmt.Printf("accesses:  %d\n", stats.Accesses)
	fmt.Printf("hits:      %d\n", stats.Hits)
	fmt.Printf("misses:    %d\n", stats.Misses)
	fmt.Printf("fills:     %d\n", stats.Fills)
	fmt.Printf("evictions: %d\n", stats.Evictions)
	fmt.Printf("hit rate:  %.4f\n", hitRate)
}
