package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/untergeek/es-checkpoint/pkg/storage"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check tracking data integrity",
	Long: `Check the tracking index for integrity problems.

The resume logic requires at most one tracking document per identity: one
per job name, one per (job, task) pair, and one per (job, task, step)
triple. Duplicates make resumption fail hard, so this command finds them
before a job run does.

Examples:
  es-checkpoint doctor --path ./tracking
  es-checkpoint doctor --backend bleve --path ./tracking`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	backend, closer, err := openBackend(log)
	if err != nil {
		return err
	}
	defer func() { _ = closer() }()

	results, err := backend.Search(cmd.Context(), trackingIndex(), storage.Query{}, 0)
	if err != nil {
		if storage.IsMissingIndex(err) {
			_, _ = fmt.Fprintln(os.Stdout, "No tracking data found")
			return nil
		}
		return err
	}

	problems := checkIntegrity(results)
	if len(problems) == 0 {
		_, _ = fmt.Fprintf(os.Stdout, "Checked %d documents, no problems found\n", len(results))
		return nil
	}
	for _, p := range problems {
		_, _ = fmt.Fprintln(os.Stdout, p)
	}
	return fmt.Errorf("%d integrity problems found", len(problems))
}

// checkIntegrity scans tracking documents for identity violations:
// duplicate identities and documents with no job field at all.
func checkIntegrity(results []storage.Result) []string {
	byIdentity := make(map[string][]string)
	var problems []string

	for _, r := range results {
		job := docString(r.Doc, "job")
		if job == "" {
			problems = append(problems, fmt.Sprintf("document %q has no job field", r.ID))
			continue
		}
		identity := "job " + job
		if task := docString(r.Doc, "task"); task != "" {
			identity = fmt.Sprintf("task %s of job %s", task, job)
			if step := docString(r.Doc, "step"); step != "" {
				identity = fmt.Sprintf("step %s of %s", step, identity)
			}
		}
		byIdentity[identity] = append(byIdentity[identity], r.ID)
	}

	identities := make([]string, 0, len(byIdentity))
	for identity := range byIdentity {
		identities = append(identities, identity)
	}
	sort.Strings(identities)
	for _, identity := range identities {
		ids := byIdentity[identity]
		if len(ids) > 1 {
			sort.Strings(ids)
			problems = append(problems, fmt.Sprintf("%s has %d tracking documents: %v", identity, len(ids), ids))
		}
	}
	return problems
}
