// Package notify announces scoring events to Discord webhooks.
//
// Events are routed by severity: critical events go to the alerts
// webhook, everything else to the feed webhook. Delivery failures are
// retried with bounded backoff and never propagate into the scoring
// path; a dropped announcement must not fail a scan.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"
)

// embed is the subset of the Discord embed object the notifier uses.
type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Timestamp   string       `json:"timestamp"`
	Footer      *embedFooter `json:"footer,omitempty"`
	Fields      []embedField `json:"fields,omitempty"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// Notifier posts event embeds to Discord webhooks.
type Notifier struct {
	feedURL   string
	alertsURL string
	client    *http.Client
	logger    *slog.Logger
}

// NewNotifier creates a notifier. Either URL may be empty; events routed
// to an empty webhook are dropped silently.
func NewNotifier(feedURL, alertsURL string, logger *slog.Logger) *Notifier {
	return &Notifier{
		feedURL:   feedURL,
		alertsURL: alertsURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
}

// Publish routes an event to the right webhook and delivers it.
func (n *Notifier) Publish(ctx context.Context, ev Event) error {
	url := n.feedURL
	if strings.Contains(strings.ToLower(ev.Severity), "critical") {
		url = n.alertsURL
	}
	if url == "" {
		return nil
	}

	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	e := embed{
		Title:       eventTitle(ev.Type),
		Description: eventDescription(ev),
		Color:       eventColor(ev.Type),
		Timestamp:   ev.Timestamp.Format(time.RFC3339),
		Footer:      &embedFooter{Text: "Event: " + ev.Type},
	}

	// At most 5 metadata fields per embed; sorted iteration keeps the
	// embed deterministic for the same event.
	for _, k := range sortedKeys(ev.Metadata) {
		if len(e.Fields) >= 5 {
			break
		}
		e.Fields = append(e.Fields, embedField{Name: k, Value: ev.Metadata[k], Inline: true})
	}

	return n.deliver(ctx, url, webhookPayload{Embeds: []embed{e}})
}

// deliver POSTs the payload with bounded retries.
func (n *Notifier) deliver(ctx context.Context, url string, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	backoffs := []time.Duration{100 * time.Millisecond, 300 * time.Millisecond}
	var lastErr error
	for attempt := 0; attempt < len(backoffs)+1; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("post: %w", err)
		} else {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			lastErr = fmt.Errorf("webhook status %d body=%q", resp.StatusCode, respBody)
		}

		if attempt < len(backoffs) {
			timer := time.NewTimer(backoffs[attempt])
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}

	if n.logger != nil {
		n.logger.Warn("webhook delivery failed", "error", lastErr)
	}
	return lastErr
}

func eventDescription(ev Event) string {
	switch ev.Type {
	case EventScanCompleted:
		return fmt.Sprintf("Scan finished for `%s`", ev.Contract)
	case EventScoreChanged:
		return fmt.Sprintf("`%s` has a new NILE score", ev.Contract)
	case EventVulnDetected:
		return fmt.Sprintf("New finding on `%s`", ev.Contract)
	default:
		return "`" + ev.Contract + "`"
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
