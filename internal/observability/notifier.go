package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Notifier sends alert notifications to external channels.
type Notifier interface {
	Notify(ctx context.Context, alerts []Alert) error
}

type slackNotifier struct {
	webhookURL string
	facility   string
	client     *http.Client
}

// NewSlackNotifier creates a Notifier that posts alerts to a Slack incoming
// webhook. facility, when set, is included in the message header.
func NewSlackNotifier(webhookURL, facility string) Notifier {
	return &slackNotifier{
		webhookURL: webhookURL,
		facility:   facility,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Notify posts one message summarising alerts. An empty slice sends nothing.
func (s *slackNotifier) Notify(ctx context.Context, alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	body, err := json.Marshal(s.buildMessage(alerts))
	if err != nil {
		return fmt.Errorf("marshaling slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// buildMessage renders facility-wide alerts first, then one section per
// patient in patient order, each listing that patient's alerts.
func (s *slackNotifier) buildMessage(alerts []Alert) slackMessage {
	header := "careclock Alert Summary"
	if s.facility != "" {
		header += " - " + s.facility
	}
	counts := CountBySeverity(alerts)
	summary := fmt.Sprintf("%d high, %d medium, %d low",
		counts[SeverityHigh], counts[SeverityMedium], counts[SeverityLow])

	blocks := []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: header}},
		{Type: "section", Text: &slackText{Type: "mrkdwn", Text: "*" + summary + "*"}},
	}

	var facilityWide []Alert
	byPatient := make(map[string][]Alert)
	for _, a := range alerts {
		if a.PatientID == "" {
			facilityWide = append(facilityWide, a)
			continue
		}
		byPatient[a.PatientID] = append(byPatient[a.PatientID], a)
	}

	if len(facilityWide) > 0 {
		blocks = append(blocks, slackBlock{Type: "divider"}, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: alertLines(facilityWide)},
		})
	}

	patients := make([]string, 0, len(byPatient))
	for id := range byPatient {
		patients = append(patients, id)
	}
	sort.Strings(patients)
	for _, id := range patients {
		blocks = append(blocks, slackBlock{Type: "divider"}, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("*Patient %s*\n%s", id, alertLines(byPatient[id]))},
		})
	}

	blocks = append(blocks, slackBlock{
		Type:     "context",
		Elements: []slackText{{Type: "mrkdwn", Text: "Evaluated " + latestTrigger(alerts).Format("2006-01-02 15:04 MST")}},
	})

	return slackMessage{Text: header + ": " + summary, Blocks: blocks}
}

func alertLines(alerts []Alert) string {
	lines := make([]string, 0, len(alerts))
	for _, a := range alerts {
		lines = append(lines, fmt.Sprintf("%s *[%s]* %s",
			severityEmoji(a.Severity), strings.ToUpper(string(a.Severity)), a.Message))
	}
	return strings.Join(lines, "\n")
}

func latestTrigger(alerts []Alert) time.Time {
	var latest time.Time
	for _, a := range alerts {
		if a.TriggeredAt.After(latest) {
			latest = a.TriggeredAt
		}
	}
	return latest
}

func severityEmoji(severity AlertSeverity) string {
	switch severity {
	case SeverityHigh:
		return "\U0001f534"
	case SeverityMedium:
		return "\U0001f7e1"
	case SeverityLow:
		return "\U0001f535"
	default:
		return "⚪"
	}
}
