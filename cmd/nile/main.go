package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nile-security/nile/evidence"
	"github.com/nile-security/nile/internal/nile/cli"
	"github.com/nile-security/nile/report"
	"github.com/nile-security/nile/signatures"
	"github.com/nile-security/nile/slither"
)

const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "nile",
	Short: "Smart contract trust scoring toolkit",
	Long: `NILE evaluates smart contract trustworthiness across 4 dimensions:
Name (identity), Image (posture), Likeness (known-pattern similarity),
and Essence (code quality).

Feed it static-analysis output, explorer metadata, and code quality
metrics; it produces composite trust scores, letter grades, and
shareable reports.`,
	Version: version,
}

// Slither command
var slitherCmd = &cobra.Command{
	Use:   "slither",
	Short: "Process Slither static-analysis output",
}

var slitherAnalyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze Slither JSON output against a severity gate",
	Run:   runSlitherAnalyze,
}

// Slither flags
var (
	slitherInput      string
	slitherThreshold  string
	slitherIgnoreInfo bool
	slitherJSON       bool
)

// Signature command
var sigCmd = &cobra.Command{
	Use:   "signatures",
	Short: "Manage the vulnerability signature database",
}

var sigListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active signatures",
	Run:   runSigList,
}

var sigMatchCmd = &cobra.Command{
	Use:   "match [source file]",
	Short: "Match contract source against the signature database",
	Args:  cobra.ExactArgs(1),
	Run:   runSigMatch,
}

var sigSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync signatures from a GitHub repository",
	Run:   runSigSync,
}

// Signature flags
var (
	sigCategory string
	sigOwner    string
	sigRepo     string
	sigPath     string
)

// Report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate trust reports",
}

var reportGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a trust report from a scan evidence file",
	Run:   runReportGenerate,
}

// Report flags
var (
	reportInput  string
	reportFormat string
	reportOutput string
)

func init() {
	// Slither analyze flags
	slitherAnalyzeCmd.Flags().StringVarP(&slitherInput, "input", "i", "", "Slither JSON output file (required)")
	slitherAnalyzeCmd.Flags().StringVarP(&slitherThreshold, "threshold", "t", "no_high", "Gate threshold: no_high, no_high_medium, no_findings")
	slitherAnalyzeCmd.Flags().BoolVar(&slitherIgnoreInfo, "ignore-info", false, "Ignore informational findings")
	slitherAnalyzeCmd.Flags().BoolVar(&slitherJSON, "json", false, "Output as JSON")
	slitherAnalyzeCmd.MarkFlagRequired("input")

	slitherCmd.AddCommand(slitherAnalyzeCmd)

	// Signature flags
	sigListCmd.Flags().StringVar(&sigCategory, "category", "", "Filter by category")
	sigSyncCmd.Flags().StringVarP(&sigOwner, "owner", "o", "", "GitHub owner of the signature repo (required)")
	sigSyncCmd.Flags().StringVarP(&sigRepo, "repo", "r", "", "Signature repository name (required)")
	sigSyncCmd.Flags().StringVar(&sigPath, "path", "signatures.yml", "Path of the signature file in the repo")
	sigSyncCmd.MarkFlagRequired("owner")
	sigSyncCmd.MarkFlagRequired("repo")

	sigCmd.AddCommand(sigListCmd)
	sigCmd.AddCommand(sigMatchCmd)
	sigCmd.AddCommand(sigSyncCmd)

	// Report flags
	reportGenerateCmd.Flags().StringVarP(&reportInput, "input", "i", "", "Scan evidence file (required)")
	reportGenerateCmd.Flags().StringVarP(&reportFormat, "format", "f", "markdown", "Output format: json, markdown")
	reportGenerateCmd.Flags().StringVar(&reportOutput, "output", "", "Output file (default: stdout)")
	reportGenerateCmd.MarkFlagRequired("input")

	reportCmd.AddCommand(reportGenerateCmd)

	// Add all commands to root
	rootCmd.AddCommand(slitherCmd)
	rootCmd.AddCommand(sigCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(cli.RootCmd) // trust subcommand
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Slither analyze implementation
func runSlitherAnalyze(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(slitherInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}

	analyzer := slither.NewAnalyzer(slither.ParseGateThreshold(slitherThreshold))
	analyzer.IgnoreInfo = slitherIgnoreInfo

	analysis, err := analyzer.AnalyzeFromJSON(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing findings: %v\n", err)
		os.Exit(1)
	}

	if slitherJSON {
		out, _ := json.MarshalIndent(analysis, "", "  ")
		fmt.Println(string(out))
	} else {
		fmt.Printf("Static Analysis\n")
		fmt.Printf("===============\n\n")
		fmt.Printf("Gate Threshold: %s\n", slitherThreshold)
		fmt.Printf("Gate Status: %s\n\n", map[bool]string{true: "PASSED", false: "FAILED"}[analysis.PassesGate])

		fmt.Printf("Summary:\n")
		fmt.Printf("  High:   %d\n", analysis.Summary.High)
		fmt.Printf("  Medium: %d\n", analysis.Summary.Medium)
		fmt.Printf("  Low:    %d\n", analysis.Summary.Low)
		fmt.Printf("  Info:   %d\n", analysis.Summary.Info)
		fmt.Printf("  Total:  %d\n\n", analysis.Summary.Total)

		if len(analysis.TopFindings) > 0 {
			fmt.Printf("Top Findings:\n")
			for _, f := range analysis.TopFindings {
				fmt.Printf("  [%s] %s: %s\n", f.Severity, f.Check, f.Description)
			}
		}

		if analysis.GateMessage != "" {
			fmt.Printf("\n%s\n", analysis.GateMessage)
		}
	}

	if !analysis.PassesGate {
		os.Exit(1)
	}
}

// Signature commands implementation
func runSigList(cmd *cobra.Command, args []string) {
	registry := signatures.NewRegistry()

	var sigs []*signatures.Signature
	if sigCategory != "" {
		sigs = registry.ListByCategory(sigCategory)
	} else {
		sigs = registry.List()
	}

	fmt.Printf("Active Signatures (%d):\n\n", len(sigs))
	for _, s := range sigs {
		fmt.Printf("  %s\n", s.ID)
		fmt.Printf("    %s\n", s.Description)
		fmt.Printf("    Category: %s, Confidence: %.2f\n\n", s.Category, s.Confidence)
	}
}

func runSigMatch(cmd *cobra.Command, args []string) {
	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading source: %v\n", err)
		os.Exit(1)
	}

	registry := signatures.NewRegistry()
	matches := registry.Match(string(source))

	if len(matches) == 0 {
		fmt.Println("No signature matches.")
		return
	}

	fmt.Printf("Signature Matches (%d):\n\n", len(matches))
	for _, m := range matches {
		sig, err := registry.Get(m.SignatureID)
		title := m.SignatureID
		if err == nil {
			title = fmt.Sprintf("%s - %s", m.SignatureID, sig.Title)
		}
		fmt.Printf("  [%.2f] %s\n", m.Confidence, title)
	}
	os.Exit(1)
}

func runSigSync(cmd *cobra.Command, args []string) {
	token := os.Getenv("NILE_GITHUB_TOKEN")
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}

	ctx := context.Background()
	registry := signatures.NewRegistry()
	syncer := signatures.NewSyncer(ctx, token)

	n, err := syncer.Sync(ctx, registry, sigOwner, sigRepo, sigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error syncing signatures: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Synced %d signatures from %s/%s\n", n, sigOwner, sigRepo)
}

// Report generate implementation
func runReportGenerate(cmd *cobra.Command, args []string) {
	format, err := report.ParseFormat(reportFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	data, err := os.ReadFile(reportInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}

	var doc evidence.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing evidence: %v\n", err)
		os.Exit(1)
	}

	result, err := report.NewGenerator().Generate(&doc, format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	if reportOutput != "" {
		if err := os.WriteFile(reportOutput, []byte(result.Content), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", reportOutput)
	} else {
		fmt.Println(result.Content)
	}

	fmt.Fprintf(os.Stderr, "\nGrade: %s (%.2f/100)\n", result.Result.Grade, result.Result.TotalScore)
}
