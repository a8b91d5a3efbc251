package main

import (
	"fmt"
	"io"
	"net/url"
	"text/tabwriter"

	"newsbot/internal/config"
	"newsbot/internal/domain/entity"

	"github.com/spf13/cobra"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Validate the topics file and list its topics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadEngine()
		if err != nil {
			return &exitError{code: 2, err: err}
		}
		topics, err := config.LoadTopics(cfg.TopicsFile)
		if err != nil {
			return &exitError{code: 2, err: err}
		}
		return printTopics(cmd.OutOrStdout(), topics)
	},
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}

// printTopics lists one row per source. Only the destination host is shown;
// the webhook path is a credential.
func printTopics(w io.Writer, topics []entity.TopicConfig) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TOPIC\tNAME\tDESTINATION\tSOURCE\tURL")
	for _, t := range topics {
		host := t.Destination
		if u, err := url.Parse(t.Destination); err == nil {
			host = u.Host
		}
		for _, s := range t.Sources {
			fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\t%s\n", t.ID, t.Emoji, t.DisplayName, host, s.Name, s.URL)
		}
	}
	return tw.Flush()
}
