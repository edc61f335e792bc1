// Package signatures maintains the registry of known vulnerability
// pattern signatures and matches contract source against them. Matches
// carry a confidence in [0,1] and feed the Likeness dimension of the
// scoring engine.
package signatures

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/nile-security/nile/internal/nile/score"
)

// Signature describes one known vulnerability pattern.
type Signature struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Category    string   `json:"category" yaml:"category"`
	Description string   `json:"description" yaml:"description"`
	Confidence  float64  `json:"confidence" yaml:"confidence"`
	Patterns    []string `json:"patterns" yaml:"patterns"`

	compiled []*regexp.Regexp
}

// Registry holds the active signature set.
type Registry struct {
	signatures map[string]*Signature
}

// NewRegistry creates a registry loaded with the built-in signature set.
func NewRegistry() *Registry {
	r := &Registry{signatures: make(map[string]*Signature)}
	r.loadBuiltinSignatures()
	return r
}

func (r *Registry) loadBuiltinSignatures() {
	r.register(&Signature{
		ID:          "reentrancy-external-call",
		Title:       "Reentrancy via external call before state update",
		Category:    "reentrancy",
		Description: "Ether transfer or external call that precedes a storage write, allowing re-entrant draining",
		Confidence:  0.85,
		Patterns: []string{
			`\.call\{value:`,
			`\.call\.value\(`,
		},
	})

	r.register(&Signature{
		ID:          "tx-origin-auth",
		Title:       "Authorization through tx.origin",
		Category:    "access-control",
		Description: "tx.origin used in an authorization check, bypassable through an intermediary contract",
		Confidence:  0.9,
		Patterns: []string{
			`require\s*\(\s*tx\.origin`,
			`tx\.origin\s*==`,
		},
	})

	r.register(&Signature{
		ID:          "arbitrary-delegatecall",
		Title:       "Delegatecall to a caller-controlled address",
		Category:    "code-injection",
		Description: "delegatecall target influenced by calldata hands full storage control to the callee",
		Confidence:  0.75,
		Patterns: []string{
			`\.delegatecall\(`,
		},
	})

	r.register(&Signature{
		ID:          "unprotected-selfdestruct",
		Title:       "Reachable selfdestruct",
		Category:    "access-control",
		Description: "selfdestruct present; lethal if the guarding modifier is missing or forgeable",
		Confidence:  0.65,
		Patterns: []string{
			`selfdestruct\s*\(`,
			`suicide\s*\(`,
		},
	})

	r.register(&Signature{
		ID:          "unchecked-low-level-call",
		Title:       "Unchecked low-level call return value",
		Category:    "error-handling",
		Description: "low-level call whose success flag is discarded",
		Confidence:  0.5,
		Patterns: []string{
			`\.send\(`,
		},
	})

	r.register(&Signature{
		ID:          "timestamp-dependence",
		Title:       "Block timestamp in critical logic",
		Category:    "randomness",
		Description: "block.timestamp or block.number as an entropy or deadline source, miner-influenceable",
		Confidence:  0.45,
		Patterns: []string{
			`block\.timestamp`,
			`now\s*[<>=%]`,
		},
	})

	r.register(&Signature{
		ID:          "legacy-pragma-overflow",
		Title:       "Arithmetic under a pre-0.8 pragma",
		Category:    "arithmetic",
		Description: "compiler versions before 0.8 wrap on overflow unless SafeMath is used",
		Confidence:  0.45,
		Patterns: []string{
			`pragma\s+solidity\s+[\^>=~]*0\.[4-7]\.`,
		},
	})
}

func (r *Registry) register(s *Signature) {
	for _, p := range s.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		s.compiled = append(s.compiled, re)
	}
	r.signatures[s.ID] = s
}

// Load replaces the active signature set with the given definitions.
// Signatures with no compilable pattern are dropped.
func (r *Registry) Load(sigs []Signature) {
	r.signatures = make(map[string]*Signature, len(sigs))
	for i := range sigs {
		s := sigs[i]
		s.compiled = nil
		r.register(&s)
		if len(r.signatures[s.ID].compiled) == 0 {
			delete(r.signatures, s.ID)
		}
	}
}

// List returns all signatures sorted by ID.
func (r *Registry) List() []*Signature {
	result := make([]*Signature, 0, len(r.signatures))
	for _, s := range r.signatures {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Get returns a signature by ID.
func (r *Registry) Get(id string) (*Signature, error) {
	s, ok := r.signatures[id]
	if !ok {
		return nil, fmt.Errorf("signature not found: %s", id)
	}
	return s, nil
}

// ListByCategory returns signatures in the given category.
func (r *Registry) ListByCategory(category string) []*Signature {
	var result []*Signature
	for _, s := range r.List() {
		if s.Category == category {
			result = append(result, s)
		}
	}
	return result
}

// Match scans contract source against every signature and returns one
// pattern match per signature that fires. Results are sorted by
// signature ID so repeated scans of the same source are identical.
func (r *Registry) Match(source string) []score.PatternMatch {
	var matches []score.PatternMatch
	for _, s := range r.List() {
		for _, re := range s.compiled {
			if re.MatchString(source) {
				matches = append(matches, score.PatternMatch{
					SignatureID: s.ID,
					Confidence:  s.Confidence,
				})
				break
			}
		}
	}
	return matches
}

// Count returns the number of active signatures.
func (r *Registry) Count() int {
	return len(r.signatures)
}
