package slither

import (
	"testing"

	"github.com/nile-security/nile/internal/nile/score"
)

const sampleOutput = `{
  "success": true,
  "error": null,
  "results": {
    "detectors": [
      {
        "check": "reentrancy-eth",
        "impact": "High",
        "confidence": "Medium",
        "description": "Reentrancy in Vault.withdraw (contracts/Vault.sol#41-52)\n\tExternal calls before state update",
        "elements": [
          {
            "type": "function",
            "name": "withdraw",
            "source_mapping": {"filename_relative": "contracts/Vault.sol", "lines": [41, 42, 43]}
          }
        ]
      },
      {
        "check": "timestamp",
        "impact": "Low",
        "confidence": "Medium",
        "description": "Vault.unlock uses block.timestamp for comparisons"
      },
      {
        "check": "solc-version",
        "impact": "Informational",
        "confidence": "High",
        "description": "Pragma version ^0.8.19 allows old versions"
      },
      {
        "check": "unchecked-transfer",
        "impact": "Medium",
        "confidence": "Medium",
        "description": "Vault.sweep ignores return value of token.transfer"
      }
    ]
  }
}`

func TestParseSlitherJSON(t *testing.T) {
	result, err := ParseSlitherJSON([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("ParseSlitherJSON: %v", err)
	}

	if !result.Success {
		t.Error("Success = false, want true")
	}
	if got := len(result.Detectors()); got != 4 {
		t.Fatalf("Detectors = %d, want 4", got)
	}
	if result.Detectors()[0].Check != "reentrancy-eth" {
		t.Errorf("first check = %q, want reentrancy-eth", result.Detectors()[0].Check)
	}
}

func TestParseSlitherJSONInvalid(t *testing.T) {
	if _, err := ParseSlitherJSON([]byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestNormalizeImpact(t *testing.T) {
	tests := []struct {
		impact string
		want   score.Severity
	}{
		{"High", score.SeverityHigh},
		{"high", score.SeverityHigh},
		{"Medium", score.SeverityMedium},
		{"Low", score.SeverityLow},
		{"Informational", score.SeverityInfo},
		{"Optimization", score.SeverityInfo},
		{"  HIGH  ", score.SeverityHigh},
		{"Catastrophic", score.SeverityInfo},
		{"", score.SeverityInfo},
	}

	for _, tt := range tests {
		if got := NormalizeImpact(tt.impact); got != tt.want {
			t.Errorf("NormalizeImpact(%q) = %q, want %q", tt.impact, got, tt.want)
		}
	}
}

func TestFilterByImpact(t *testing.T) {
	result, err := ParseSlitherJSON([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("ParseSlitherJSON: %v", err)
	}

	high := result.FilterByImpact("high")
	if len(high) != 1 {
		t.Errorf("high findings = %d, want 1", len(high))
	}

	both := result.FilterByImpact("High", "Medium")
	if len(both) != 2 {
		t.Errorf("high+medium findings = %d, want 2", len(both))
	}
}

func TestFindings(t *testing.T) {
	result, err := ParseSlitherJSON([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("ParseSlitherJSON: %v", err)
	}

	findings := Findings(result)
	if len(findings) != 4 {
		t.Fatalf("Findings = %d, want 4", len(findings))
	}
	if findings[0].Severity != score.SeverityHigh {
		t.Errorf("first severity = %q, want high", findings[0].Severity)
	}
	// Multi-line descriptions collapse to the first line.
	if findings[0].Description != "Reentrancy in Vault.withdraw (contracts/Vault.sol#41-52)" {
		t.Errorf("description = %q", findings[0].Description)
	}
}

func TestAnalyzeGates(t *testing.T) {
	tests := []struct {
		name       string
		threshold  GateThreshold
		wantPasses bool
	}{
		{"no_high fails on high finding", GateNoHigh, false},
		{"no_high_medium fails", GateNoHighMedium, false},
		{"no_findings fails", GateNoFindings, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(tt.threshold)
			analysis, err := a.AnalyzeFromJSON([]byte(sampleOutput))
			if err != nil {
				t.Fatalf("AnalyzeFromJSON: %v", err)
			}
			if analysis.PassesGate != tt.wantPasses {
				t.Errorf("PassesGate = %v, want %v (%s)", analysis.PassesGate, tt.wantPasses, analysis.GateMessage)
			}
		})
	}
}

func TestAnalyzeSummary(t *testing.T) {
	a := NewAnalyzer(GateNoHigh)
	analysis, err := a.AnalyzeFromJSON([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("AnalyzeFromJSON: %v", err)
	}

	s := analysis.Summary
	if s.High != 1 || s.Medium != 1 || s.Low != 1 || s.Info != 1 || s.Total != 4 {
		t.Errorf("Summary = %+v, want 1/1/1/1 total 4", s)
	}

	// Top findings are ordered most severe first.
	if len(analysis.TopFindings) == 0 || analysis.TopFindings[0].Severity != score.SeverityHigh {
		t.Errorf("TopFindings not ordered by severity: %+v", analysis.TopFindings)
	}
}

func TestAnalyzeIgnoreInfo(t *testing.T) {
	a := NewAnalyzer(GateNoFindings)
	a.IgnoreInfo = true
	analysis, err := a.AnalyzeFromJSON([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("AnalyzeFromJSON: %v", err)
	}
	if analysis.Summary.Total != 3 {
		t.Errorf("Total = %d, want 3 with info filtered", analysis.Summary.Total)
	}
}

func TestAnalyzeCleanResult(t *testing.T) {
	clean := `{"success": true, "error": null, "results": {"detectors": []}}`

	a := NewAnalyzer(GateNoFindings)
	analysis, err := a.AnalyzeFromJSON([]byte(clean))
	if err != nil {
		t.Fatalf("AnalyzeFromJSON: %v", err)
	}
	if !analysis.PassesGate {
		t.Errorf("PassesGate = false for clean result (%s)", analysis.GateMessage)
	}
	if analysis.Summary.Total != 0 {
		t.Errorf("Total = %d, want 0", analysis.Summary.Total)
	}
}

func TestParseGateThreshold(t *testing.T) {
	tests := []struct {
		in   string
		want GateThreshold
	}{
		{"no_high", GateNoHigh},
		{"HIGH", GateNoHigh},
		{"no_high_medium", GateNoHighMedium},
		{"none", GateNoFindings},
		{"bogus", GateNoHigh},
	}

	for _, tt := range tests {
		if got := ParseGateThreshold(tt.in); got != tt.want {
			t.Errorf("ParseGateThreshold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
