package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var watermarksCmd = &cobra.Command{
	Use:   "watermarks",
	Short: "List the stored watermark of every key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadEngine()
		if err != nil {
			return &exitError{code: 2, err: err}
		}
		loc, err := cfg.Location()
		if err != nil {
			return &exitError{code: 2, err: err}
		}
		repo, closer, err := openWatermarkRepo(cmd.Context(), cfg)
		if err != nil {
			return &exitError{code: 2, err: err}
		}
		if closer != nil {
			defer func() { _ = closer() }()
		}

		all, err := repo.List(cmd.Context())
		if err != nil {
			return err
		}
		return printWatermarks(cmd.OutOrStdout(), all, loc, time.Now())
	},
}

func init() {
	rootCmd.AddCommand(watermarksCmd)
}

func printWatermarks(w io.Writer, all map[string]time.Time, loc *time.Location, now time.Time) error {
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tWATERMARK\tAGE")
	for _, k := range keys {
		t := all[k]
		fmt.Fprintf(tw, "%s\t%s\t%s\n", k, t.In(loc).Format(time.RFC3339), now.Sub(t).Truncate(time.Second))
	}
	return tw.Flush()
}
