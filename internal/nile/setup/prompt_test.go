package setup

import (
	"bytes"
	"strings"
	"testing"
)

func TestAskDefault(t *testing.T) {
	var out bytes.Buffer

	p := newPrompter(strings.NewReader("\n"), &out)
	if got := p.askDefault("Listen address", ":8080"); got != ":8080" {
		t.Errorf("empty answer = %q, want default", got)
	}

	p = newPrompter(strings.NewReader(":9090\n"), &out)
	if got := p.askDefault("Listen address", ":8080"); got != ":9090" {
		t.Errorf("explicit answer = %q, want :9090", got)
	}
}

func TestAskYesNo(t *testing.T) {
	tests := []struct {
		input      string
		defaultYes bool
		want       bool
	}{
		{"y\n", false, true},
		{"yes\n", false, true},
		{"n\n", true, false},
		{"\n", true, true},
		{"\n", false, false},
		{"maybe\n", true, true},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		p := newPrompter(strings.NewReader(tt.input), &out)
		if got := p.askYesNo("Continue?", tt.defaultYes); got != tt.want {
			t.Errorf("askYesNo(%q, default=%v) = %v, want %v", strings.TrimSpace(tt.input), tt.defaultYes, got, tt.want)
		}
	}
}

func TestAskSecretFallsBackOffTerminal(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("hunter2\n"), &out)
	if got := p.askSecret("API key:"); got != "hunter2" {
		t.Errorf("askSecret = %q, want hunter2", got)
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://nile:sekrit@db:5432/nile", "postgres://***@db:5432/nile"},
		{"postgres://db:5432/nile", "postgres://db:5432/nile"},
	}
	for _, tt := range tests {
		if got := redactURL(tt.in); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
