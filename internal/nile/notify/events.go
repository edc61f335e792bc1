package notify

import "time"

// Event types published by the scoring service.
const (
	EventScanCompleted = "scan.completed"
	EventScoreChanged  = "score.changed"
	EventVulnDetected  = "vuln.detected"
)

// Event is one ecosystem event to announce.
type Event struct {
	Type      string            `json:"event_type"`
	Contract  string            `json:"contract"`
	Severity  string            `json:"severity,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// eventTitle maps event types to embed titles.
func eventTitle(eventType string) string {
	switch eventType {
	case EventScanCompleted:
		return "Scan Completed"
	case EventScoreChanged:
		return "NILE Score Changed"
	case EventVulnDetected:
		return "Vulnerability Detected"
	default:
		return "Ecosystem Event"
	}
}

// eventColor maps event types to embed colors.
func eventColor(eventType string) int {
	switch eventType {
	case EventScanCompleted:
		return 0x0EA5E9 // sky
	case EventScoreChanged:
		return 0x22C55E // green
	case EventVulnDetected:
		return 0xEF4444 // red
	default:
		return 0x6B7280 // gray
	}
}
