package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nile-security/nile/evidence"
	"github.com/nile-security/nile/internal/nile/score"
)

var (
	scoreJSON  bool
	scoreWrite bool
	scorePlain bool
)

var scoreCmd = &cobra.Command{
	Use:   "score <file|directory>",
	Short: "Score the trustworthiness of contract evidence documents",
	Long: `Evaluates scan evidence on 4 dimensions and produces a composite
trust grade (A+ through F).

Dimensions:
  Name      — Identity verification, audits, maturity
  Image     — Open vulnerabilities and patch cadence
  Likeness  — Static-analysis findings and known-pattern matches
  Essence   — Coverage, complexity, upgrade and dependency risk

Pass a single .nile.json evidence file or a directory to score every
evidence file in it.
Use --json for machine-readable output.
Use --write to save the computed score back into the evidence files.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Output JSON instead of formatted report")
	scoreCmd.Flags().BoolVar(&scoreWrite, "write", false, "Write scores back into the evidence files")
	scoreCmd.Flags().BoolVar(&scorePlain, "plain", false, "Disable color output")
}

type scoredFile struct {
	File    string        `json:"file"`
	Address string        `json:"address"`
	Name    string        `json:"name,omitempty"`
	Result  *score.Result `json:"nile_score"`
}

func runScore(cmd *cobra.Command, args []string) error {
	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return fmt.Errorf("reading directory: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".nile.json") {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
		if len(files) == 0 {
			return fmt.Errorf("no .nile.json files found in %s", path)
		}
	} else {
		files = []string{path}
	}

	var results []scoredFile

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipping %s: %v\n", f, err)
			continue
		}

		var doc evidence.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipping %s: invalid JSON: %v\n", f, err)
			continue
		}
		if err := doc.Validate(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipping %s: %v\n", f, err)
			continue
		}

		result, err := doc.Score(score.DefaultWeights)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipping %s: %v\n", f, err)
			continue
		}
		results = append(results, scoredFile{
			File:    filepath.Base(f),
			Address: doc.Address,
			Name:    doc.Name,
			Result:  result,
		})

		if scoreWrite {
			doc.Result = result
			updated, err := json.MarshalIndent(&doc, "", "  ")
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not marshal %s: %v\n", f, err)
				continue
			}
			if err := os.WriteFile(f, updated, 0o644); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not write %s: %v\n", f, err)
			}
		}
	}

	if len(results) == 0 {
		return fmt.Errorf("no valid evidence files to score")
	}

	if scoreJSON {
		out, _ := json.MarshalIndent(results, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	out := cmd.OutOrStdout()

	if len(results) > 1 {
		renderSummaryTable(out, results)
		fmt.Fprintln(out)
	}
	for i, r := range results {
		renderDetailedScore(out, r, !scorePlain)
		if i < len(results)-1 {
			fmt.Fprintln(out)
		}
	}

	return nil
}
