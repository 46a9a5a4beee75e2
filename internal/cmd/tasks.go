package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/untergeek/es-checkpoint/pkg/storage"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect task and step tracking documents",
}

var tasksListCmd = &cobra.Command{
	Use:   "list <job_name>",
	Short: "List tasks and steps for one job",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksList,
}

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(tasksListCmd)

	tasksListCmd.Flags().Bool("json", false, "Output as JSON")
	tasksListCmd.Flags().Bool("steps", false, "Include step documents")
}

func runTasksList(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	includeSteps, _ := cmd.Flags().GetBool("steps")
	job := args[0]

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
		Terms: map[string]any{"job": job},
	}, 0)
	if err != nil {
		if storage.IsMissingIndex(err) {
			_, _ = fmt.Fprintln(os.Stdout, "No tracking data found")
			return nil
		}
		return err
	}

	// The job document itself matches the job term; keep only documents
	// carrying a task identity.
	var rows []storage.Result
	for _, r := range results {
		if docString(r.Doc, "task") == "" {
			continue
		}
		if !includeSteps && docString(r.Doc, "step") != "" {
			continue
		}
		rows = append(rows, r)
	}
	if len(rows) == 0 {
		_, _ = fmt.Fprintf(os.Stdout, "No tasks found for job %q\n", job)
		return nil
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	_, _ = fmt.Fprintln(w, "TASK\tSTEP\tINDEX\tSTARTED\tENDED\tCOMPLETED\tERRORS")
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\t%t\n",
			docString(r.Doc, "task"),
			orDash(docString(r.Doc, "step")),
			orDash(docString(r.Doc, "index")),
			orDash(docString(r.Doc, "start_time")),
			orDash(docString(r.Doc, "end_time")),
			docBool(r.Doc, "completed"),
			docBool(r.Doc, "errors"))
	}
	return nil
}
