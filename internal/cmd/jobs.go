package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/untergeek/es-checkpoint/pkg/schema"
	"github.com/untergeek/es-checkpoint/pkg/storage"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect job tracking documents",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked jobs",
	RunE:  runJobsList,
}

var jobsStatusCmd = &cobra.Command{
	Use:   "status <job_name>",
	Short: "Show one job with its log trail",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsStatus,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsStatusCmd)

	jobsListCmd.Flags().Bool("json", false, "Output as JSON")
	jobsStatusCmd.Flags().Bool("json", false, "Output as JSON")
}

func runJobsList(cmd *cobra.Command, _ []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	log, err := newLogger()
	if err != nil {
		return err
	}
	backend, closer, err := openBackend(log)
	if err != nil {
		return err
	}
	defer func() { _ = closer() }()

	results, err := backend.Search(cmd.Context(), trackingIndex(), storage.Query{
		Terms: map[string]any{"join_field": schema.JoinFieldRoot},
	}, 0)
	if err != nil {
		if storage.IsMissingIndex(err) {
			_, _ = fmt.Fprintln(os.Stdout, "No tracking data found")
			return nil
		}
		return err
	}
	if len(results) == 0 {
		_, _ = fmt.Fprintln(os.Stdout, "No jobs found")
		return nil
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	_, _ = fmt.Fprintln(w, "JOB\tSTARTED\tENDED\tCOMPLETED\tERRORS\tDRY RUN")
	for _, r := range results {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\t%t\n",
			docString(r.Doc, "job"),
			orDash(docString(r.Doc, "start_time")),
			orDash(docString(r.Doc, "end_time")),
			docBool(r.Doc, "completed"),
			docBool(r.Doc, "errors"),
			docBool(r.Doc, "dry_run"))
	}
	return nil
}

func runJobsStatus(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	name := args[0]

	log, err := newLogger()
	if err != nil {
		return err
	}
	backend, closer, err := openBackend(log)
	if err != nil {
		return err
	}
	defer func() { _ = closer() }()

	doc, err := backend.Get(cmd.Context(), trackingIndex(), name)
	if err != nil {
		if storage.IsMissingDocument(err) || storage.IsMissingIndex(err) {
			return fmt.Errorf("job %q not found", name)
		}
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Job:\t%s\n", docString(doc, "job"))
	_, _ = fmt.Fprintf(w, "Started:\t%s\n", orDash(docString(doc, "start_time")))
	_, _ = fmt.Fprintf(w, "Ended:\t%s\n", orDash(docString(doc, "end_time")))
	_, _ = fmt.Fprintf(w, "Completed:\t%t\n", docBool(doc, "completed"))
	_, _ = fmt.Fprintf(w, "Errors:\t%t\n", docBool(doc, "errors"))
	_, _ = fmt.Fprintf(w, "Dry run:\t%t\n", docBool(doc, "dry_run"))
	_ = w.Flush()

	if logs := docStrings(doc, "logs"); len(logs) > 0 {
		_, _ = fmt.Fprintln(os.Stdout, "\nLog trail:")
		for _, line := range logs {
			_, _ = fmt.Fprintln(os.Stdout, "  "+line)
		}
	}
	return nil
}

func docString(doc storage.Document, key string) string {
	s, _ := doc[key].(string)
	return s
}

func docBool(doc storage.Document, key string) bool {
	b, _ := doc[key].(bool)
	return b
}

func docStrings(doc storage.Document, key string) []string {
	switch v := doc[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
