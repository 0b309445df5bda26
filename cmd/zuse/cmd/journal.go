package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/zuse/foundation/utils/stringx"
	"github.com/msto63/zuse/internal/journal"
)

var (
	journalLimit   int
	journalFailed  bool
	journalCommand string
	journalMode    string
	journalSince   time.Duration
	journalStats   bool
	journalPrune   time.Duration
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show the command journal",
	Long: `Lists the most recent entries of the command journal, newest
first. The journal is written when journal.enabled is set in the
config.

Examples:
  zuse journal --limit 50
  zuse journal --failed --since 1h
  zuse journal --stats
  zuse journal --prune 720h`,
	Args: cobra.NoArgs,
	RunE: runJournal,
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.Flags().IntVarP(&journalLimit, "limit", "n", journal.DefaultListLimit, "maximum number of entries")
	journalCmd.Flags().BoolVar(&journalFailed, "failed", false, "only failed commands")
	journalCmd.Flags().StringVar(&journalCommand, "command", "", "only this command")
	journalCmd.Flags().StringVar(&journalMode, "mode", "", "only this mode (sync, async, parallel)")
	journalCmd.Flags().DurationVar(&journalSince, "since", 0, "only entries younger than this")
	journalCmd.Flags().BoolVar(&journalStats, "stats", false, "show counters instead of entries")
	journalCmd.Flags().DurationVar(&journalPrune, "prune", 0, "delete entries older than this and compact")
}

func runJournal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("config", err)
		return err
	}

	store, err := journal.Open(journal.Config{Path: cfg.Journal.Path})
	if err != nil {
		printError("cannot open journal", err)
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch {
	case journalPrune > 0:
		n, err := store.Prune(ctx, journalPrune)
		if err != nil {
			printError("prune failed", err)
			return err
		}
		if err := store.Vacuum(ctx); err != nil {
			printError("vacuum failed", err)
			return err
		}
		fmt.Printf("Pruned %d entries\n", n)
		return nil

	case journalStats:
		stats, err := store.Stats(ctx)
		if err != nil {
			printError("stats failed", err)
			return err
		}
		fmt.Printf("Total:  %d\n", stats.Total)
		fmt.Printf("Failed: %d\n", stats.Failed)
		for _, mode := range sortedKeys(stats.ByMode) {
			fmt.Printf("  %s %d\n", stringx.PadRight(mode, 9, ' '), stats.ByMode[mode])
		}
		if len(stats.TopFailed) > 0 {
			fmt.Println("Most failures:")
			for _, command := range sortedKeys(stats.TopFailed) {
				fmt.Printf("  %s %d\n", stringx.PadRight(command, 20, ' '), stats.TopFailed[command])
			}
		}
		return nil
	}

	filter := journal.Filter{
		Command:    journalCommand,
		Mode:       journalMode,
		FailedOnly: journalFailed,
		Limit:      journalLimit,
	}
	if journalSince > 0 {
		filter.Since = time.Now().Add(-journalSince)
	}
	entries, err := store.Query(ctx, filter)
	if err != nil {
		printError("query failed", err)
		return err
	}
	for _, e := range entries {
		fmt.Println(journal.FormatEntry(e))
	}
	return nil
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
