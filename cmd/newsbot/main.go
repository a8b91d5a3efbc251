// Command newsbot relays fresh, deduplicated feed articles to per-topic chat
// webhooks.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "newsbot",
	Short: "Feed freshness and deduplication relay",
	Long: "newsbot fetches the configured feeds, keeps the items published since the last run, " +
		"drops duplicate and near-duplicate stories and delivers one batch per topic.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries a process exit status through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func main() {
	// .env is optional; production injects the environment directly.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		code := 2
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		if ee == nil || ee.err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(code)
	}
}
