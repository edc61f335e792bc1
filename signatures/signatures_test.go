package signatures

import (
	"testing"
)

const vulnerableSource = `
pragma solidity ^0.6.12;

contract Vault {
    mapping(address => uint256) public balances;
    address owner;

    function withdraw(uint256 amount) external {
        (bool ok, ) = msg.sender.call{value: amount}("");
        require(ok);
        balances[msg.sender] -= amount;
    }

    function drain() external {
        require(tx.origin == owner);
        selfdestruct(payable(owner));
    }
}
`

const cleanSource = `
pragma solidity ^0.8.24;

contract Counter {
    uint256 public count;

    function increment() external {
        count += 1;
    }
}
`

func TestNewRegistryBuiltins(t *testing.T) {
	r := NewRegistry()
	if r.Count() == 0 {
		t.Fatal("registry has no built-in signatures")
	}

	sig, err := r.Get("reentrancy-external-call")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sig.Confidence <= 0 || sig.Confidence > 1 {
		t.Errorf("Confidence = %v, want (0,1]", sig.Confidence)
	}
}

func TestGetUnknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("no-such-signature"); err == nil {
		t.Error("expected error for unknown signature")
	}
}

func TestMatchVulnerableSource(t *testing.T) {
	r := NewRegistry()
	matches := r.Match(vulnerableSource)

	found := make(map[string]float64)
	for _, m := range matches {
		found[m.SignatureID] = m.Confidence
	}

	for _, want := range []string{
		"reentrancy-external-call",
		"tx-origin-auth",
		"unprotected-selfdestruct",
		"legacy-pragma-overflow",
	} {
		if _, ok := found[want]; !ok {
			t.Errorf("expected match for %s, got %v", want, found)
		}
	}
}

func TestMatchCleanSource(t *testing.T) {
	r := NewRegistry()
	if matches := r.Match(cleanSource); len(matches) != 0 {
		t.Errorf("clean source produced matches: %v", matches)
	}
}

func TestMatchDeterministicOrder(t *testing.T) {
	r := NewRegistry()
	a := r.Match(vulnerableSource)
	b := r.Match(vulnerableSource)

	if len(a) != len(b) {
		t.Fatalf("match counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("match %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestMatchFiresOncePerSignature(t *testing.T) {
	r := NewRegistry()
	// Both reentrancy patterns present; the signature must fire once.
	source := `.call{value: x}("") .call.value(x)("")`
	count := 0
	for _, m := range r.Match(source) {
		if m.SignatureID == "reentrancy-external-call" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("signature fired %d times, want 1", count)
	}
}

func TestListByCategory(t *testing.T) {
	r := NewRegistry()
	access := r.ListByCategory("access-control")
	if len(access) == 0 {
		t.Error("no access-control signatures")
	}
	for _, s := range access {
		if s.Category != "access-control" {
			t.Errorf("signature %s has category %q", s.ID, s.Category)
		}
	}
}

func TestLoadReplacesSet(t *testing.T) {
	r := NewRegistry()
	r.Load([]Signature{
		{
			ID:         "custom-1",
			Title:      "Custom",
			Category:   "test",
			Confidence: 0.7,
			Patterns:   []string{`unsafeThing\(`},
		},
		{
			ID:         "broken",
			Title:      "Bad regex",
			Category:   "test",
			Confidence: 0.9,
			Patterns:   []string{`([`},
		},
	})

	// The uncompilable signature is dropped, the valid one is active.
	if r.Count() != 1 {
		t.Fatalf("Count = %d, want 1", r.Count())
	}
	matches := r.Match("x = unsafeThing();")
	if len(matches) != 1 || matches[0].SignatureID != "custom-1" {
		t.Errorf("matches = %v, want custom-1", matches)
	}
}
