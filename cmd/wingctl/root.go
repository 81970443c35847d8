package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPath          string
	useMemory       bool
	poolSize        int
	indexName       string
	valueSize       int
	leafMaxSize     int
	internalMaxSize int
)

// RootCmd is the wingctl entry point: a small inspection and load tool for
// a single named B+Tree index backed by one buffer pool and one data
// file (or, with --memory, nothing durable at all).
var RootCmd = &cobra.Command{
	Use:   "wingctl",
	Short: "Inspect and drive a wingdb B+Tree index from the command line",
	Long: `wingctl opens (creating if necessary) a B+Tree index backed by a
buffer-pooled disk file and lets you put, get, delete, and scan int64-keyed
entries, or bulk-load them from a file, without writing any Go code.`,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "wingdb.db", "path to the database file")
	RootCmd.PersistentFlags().BoolVar(&useMemory, "memory", false, "use an in-memory disk manager instead of --db")
	RootCmd.PersistentFlags().IntVar(&poolSize, "pool-size", 64, "number of frames in the buffer pool")
	RootCmd.PersistentFlags().StringVar(&indexName, "index", "default", "name of the index within the database")
	RootCmd.PersistentFlags().IntVar(&valueSize, "value-size", 128, "fixed width, in bytes, of stored values")
	RootCmd.PersistentFlags().IntVar(&leafMaxSize, "leaf-max-size", 32, "max entries per leaf page before it splits")
	RootCmd.PersistentFlags().IntVar(&internalMaxSize, "internal-max-size", 32, "max children per internal page before it splits")

	Init()
}

// Init wires every subcommand onto the package-level RootCmd; init() calls
// it once.
func Init() {
	RootCmd.AddCommand(putCmd)
	RootCmd.AddCommand(getCmd)
	RootCmd.AddCommand(deleteCmd)
	RootCmd.AddCommand(scanCmd)
	RootCmd.AddCommand(statsCmd)
	RootCmd.AddCommand(dumpCmd)
	RootCmd.AddCommand(peekCmd)
	RootCmd.AddCommand(loadCmd)
}

// Execute runs the CLI, printing any error to stderr and exiting non-zero.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
