package signatures

import (
	"context"
	"fmt"

	"github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
)

// signatureFile is the YAML document layout of a published signature set.
type signatureFile struct {
	Version    int         `yaml:"version"`
	Signatures []Signature `yaml:"signatures"`
}

// Syncer pulls signature definitions from a GitHub repository, so the
// registry can track community-maintained signature sets between releases.
type Syncer struct {
	client *github.Client
}

// NewSyncer creates a syncer. An empty token gives unauthenticated access,
// which is enough for public signature repositories.
func NewSyncer(ctx context.Context, token string) *Syncer {
	if token == "" {
		return &Syncer{client: github.NewClient(nil)}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Syncer{client: github.NewClient(oauth2.NewClient(ctx, ts))}
}

// NewSyncerWithClient creates a syncer around an existing client (for tests).
func NewSyncerWithClient(client *github.Client) *Syncer {
	return &Syncer{client: client}
}

// Sync fetches the signature file at owner/repo/path and loads it into
// the registry, replacing the active set. Returns the number of
// signatures loaded.
func (s *Syncer) Sync(ctx context.Context, registry *Registry, owner, repo, path string) (int, error) {
	content, _, _, err := s.client.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return 0, fmt.Errorf("fetching %s/%s/%s: %w", owner, repo, path, err)
	}
	if content == nil {
		return 0, fmt.Errorf("%s/%s/%s is not a file", owner, repo, path)
	}

	raw, err := content.GetContent()
	if err != nil {
		return 0, fmt.Errorf("decoding %s: %w", path, err)
	}

	var file signatureFile
	if err := yaml.Unmarshal([]byte(raw), &file); err != nil {
		return 0, fmt.Errorf("parsing signature file: %w", err)
	}
	if len(file.Signatures) == 0 {
		return 0, fmt.Errorf("signature file %s contains no signatures", path)
	}

	registry.Load(file.Signatures)
	return registry.Count(), nil
}
