package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"newsbot/internal/config"
	"newsbot/internal/domain/entity"
	"newsbot/internal/infra/scraper"
	"newsbot/internal/resilience/retry"
	"newsbot/internal/usecase/fetch"
	"newsbot/internal/usecase/window"

	"github.com/spf13/cobra"
)

var (
	diagnoseJSON    bool
	diagnoseTimeout time.Duration
	diagnosePause   time.Duration
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Fetch every configured feed once and report its health",
	Long: `Fetch every configured source once, without retries, and report the HTTP
outcome, item count, newest publish time and unparseable timestamps. Nothing
is delivered and no watermark is touched.`,
	Args: cobra.NoArgs,
	RunE: runDiagnose,
}

func init() {
	diagnoseCmd.Flags().BoolVar(&diagnoseJSON, "json", false, "print results as JSON")
	diagnoseCmd.Flags().DurationVar(&diagnoseTimeout, "timeout", 30*time.Second, "per-feed timeout")
	diagnoseCmd.Flags().DurationVar(&diagnosePause, "pause", 500*time.Millisecond, "pause between feeds")
	rootCmd.AddCommand(diagnoseCmd)
}

// Diagnostic statuses.
const (
	statusOK        = "OK"
	statusTimeout   = "TIMEOUT"
	statusHTTP      = "HTTP_ERROR"
	statusMalformed = "MALFORMED"
	statusTransport = "TRANSPORT_ERROR"
)

type feedDiagnostic struct {
	Topic         entity.TopicID `json:"topic"`
	Name          string         `json:"name"`
	URL           string         `json:"url"`
	Status        string         `json:"status"`
	HTTPCode      int            `json:"http_code,omitempty"`
	ItemCount     int            `json:"item_count"`
	ParseFailures int            `json:"parse_failures"`
	Latest        *time.Time     `json:"latest,omitempty"`
	ResponseTime  int64          `json:"response_time_ms"`
	ErrorMessage  string         `json:"error_message,omitempty"`
}

func runDiagnose(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadEngine()
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	topics, err := config.LoadTopics(cfg.TopicsFile)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	loc, err := cfg.Location()
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	fetcher := scraper.NewRSSFetcher(newHTTPClient())
	var results []feedDiagnostic
	for _, t := range topics {
		for _, src := range t.Sources {
			if len(results) > 0 && diagnosePause > 0 {
				select {
				case <-time.After(diagnosePause):
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				}
			}
			results = append(results, diagnoseSource(cmd.Context(), fetcher, src, loc, diagnoseTimeout))
		}
	}

	if diagnoseJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	if err := printDiagnostics(cmd.OutOrStdout(), results, loc); err != nil {
		return err
	}
	for _, r := range results {
		if r.Status != statusOK {
			return &exitError{code: 1}
		}
	}
	return nil
}

// diagnoseSource makes one bounded attempt at src.
func diagnoseSource(ctx context.Context, f fetch.DocumentFetcher, src entity.Source, loc *time.Location, timeout time.Duration) feedDiagnostic {
	diag := feedDiagnostic{Topic: src.Topic, Name: src.Name, URL: src.URL}

	start := time.Now()
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	doc, err := f.Fetch(attemptCtx, src.URL)
	diag.ResponseTime = time.Since(start).Milliseconds()

	if err == nil && (doc == nil || len(doc.Items) == 0) {
		err = fmt.Errorf("%w: no items", entity.ErrFetchMalformed)
	}
	if err != nil {
		diag.ErrorMessage = err.Error()
		var httpErr *retry.HTTPError
		switch {
		case errors.Is(attemptCtx.Err(), context.DeadlineExceeded):
			diag.Status = statusTimeout
			diag.ErrorMessage = fmt.Sprintf("no response within %v", timeout)
		case errors.As(err, &httpErr):
			diag.Status = statusHTTP
			diag.HTTPCode = httpErr.StatusCode
		case errors.Is(err, entity.ErrFetchMalformed):
			diag.Status = statusMalformed
		default:
			diag.Status = statusTransport
		}
		return diag
	}

	diag.Status = statusOK
	diag.ItemCount = len(doc.Items)
	for _, it := range doc.Items {
		t, err := window.ParseTime(it.Published, it.PublishedAt, loc)
		if err != nil {
			diag.ParseFailures++
			continue
		}
		if diag.Latest == nil || t.After(*diag.Latest) {
			latest := t
			diag.Latest = &latest
		}
	}
	return diag
}

func printDiagnostics(w io.Writer, results []feedDiagnostic, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TOPIC\tSOURCE\tSTATUS\tITEMS\tUNPARSED\tLATEST\tTIME\tERROR")
	ok := 0
	for _, r := range results {
		latest := "-"
		if r.Latest != nil {
			latest = r.Latest.In(loc).Format("2006-01-02 15:04")
		}
		if r.Status == statusOK {
			ok++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%dms\t%s\n",
			r.Topic, r.Name, r.Status, r.ItemCount, r.ParseFailures, latest, r.ResponseTime, r.ErrorMessage)
	}
	fmt.Fprintf(tw, "\n%d/%d feeds OK\n", ok, len(results))
	return tw.Flush()
}
