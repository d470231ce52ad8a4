package observability

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var notifyAt = time.Date(2026, 10, 16, 10, 30, 0, 0, time.UTC)

func TestSlackNotifier_NoAlerts(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, "")
	if err := n.Notify(context.Background(), nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if called {
		t.Fatal("expected no HTTP request for empty alerts")
	}
}

func TestSlackNotifier_SendsGroupedMessage(t *testing.T) {
	var receivedBody []byte
	var receivedContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedContentType = r.Header.Get("Content-Type")
		var err error
		receivedBody, err = io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("reading request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, "Sunrise House")
	alerts := []Alert{
		{ID: "overdue-t3", Severity: SeverityHigh, PatientID: "P-200", Message: "weight for patient P-200 is 1 day overdue", TriggeredAt: notifyAt},
		{ID: "overdue-t1", Severity: SeverityHigh, PatientID: "P-100", Message: "vital signs for patient P-100 is 2 days overdue", TriggeredAt: notifyAt},
		{ID: "today-t2", Severity: SeverityMedium, PatientID: "P-100", Message: "blood sugar for patient P-100 is due today", TriggeredAt: notifyAt},
		{ID: FacilityOverdueAlertID, Severity: SeverityHigh, Message: "12 tasks are overdue, exceeding the maximum of 10", TriggeredAt: notifyAt},
	}

	if err := n.Notify(context.Background(), alerts); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if receivedContentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", receivedContentType)
	}

	var msg slackMessage
	if err := json.Unmarshal(receivedBody, &msg); err != nil {
		t.Fatalf("unmarshaling request body: %v", err)
	}

	// header, summary, facility (divider+section), P-100 (divider+section), P-200 (divider+section), context
	wantTypes := []string{"header", "section", "divider", "section", "divider", "section", "divider", "section", "context"}
	if len(msg.Blocks) != len(wantTypes) {
		t.Fatalf("expected %d blocks, got %d", len(wantTypes), len(msg.Blocks))
	}
	for i, want := range wantTypes {
		if msg.Blocks[i].Type != want {
			t.Errorf("block %d type = %s, want %s", i, msg.Blocks[i].Type, want)
		}
	}
	if got := msg.Blocks[0].Text.Text; got != "careclock Alert Summary - Sunrise House" {
		t.Errorf("header = %q", got)
	}
	if got := msg.Blocks[1].Text.Text; got != "*3 high, 1 medium, 0 low*" {
		t.Errorf("summary = %q", got)
	}
	if got := msg.Blocks[3].Text.Text; !strings.Contains(got, "exceeding the maximum") {
		t.Errorf("facility section = %q", got)
	}
	p100 := msg.Blocks[5].Text.Text
	if !strings.HasPrefix(p100, "*Patient P-100*") || strings.Count(p100, "\n") != 2 {
		t.Errorf("P-100 section = %q, want header plus two alerts", p100)
	}
	if !strings.HasPrefix(msg.Blocks[7].Text.Text, "*Patient P-200*") {
		t.Errorf("P-200 section = %q", msg.Blocks[7].Text.Text)
	}
	if ctxBlock := msg.Blocks[8]; len(ctxBlock.Elements) != 1 || !strings.Contains(ctxBlock.Elements[0].Text, "2026-10-16 10:30 UTC") {
		t.Errorf("context block = %+v", ctxBlock)
	}
	if !strings.HasPrefix(msg.Text, "careclock Alert Summary - Sunrise House: 3 high") {
		t.Errorf("fallback text = %q", msg.Text)
	}
}

func TestSlackNotifier_HeaderWithoutFacility(t *testing.T) {
	n := &slackNotifier{}
	msg := n.buildMessage([]Alert{{Severity: SeverityLow, PatientID: "P-1", Message: "x", TriggeredAt: notifyAt}})
	if msg.Blocks[0].Text.Text != "careclock Alert Summary" {
		t.Errorf("unexpected header %q", msg.Blocks[0].Text.Text)
	}
}

func TestSlackNotifier_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, "")
	err := n.Notify(context.Background(), []Alert{{ID: "a", Severity: SeverityHigh, Message: "test alert", TriggeredAt: notifyAt}})
	if err == nil {
		t.Fatal("expected error for 500 response, got nil")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("expected error to contain status code 500, got: %s", err.Error())
	}
}

func TestSlackNotifier_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := NewSlackNotifier(srv.URL, "")
	if err := n.Notify(ctx, []Alert{{Severity: SeverityLow, Message: "x"}}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestAlertLines_SeverityEmojis(t *testing.T) {
	tests := []struct {
		severity AlertSeverity
		emoji    string
	}{
		{SeverityHigh, "\U0001f534"},
		{SeverityMedium, "\U0001f7e1"},
		{SeverityLow, "\U0001f535"},
		{"unknown", "⚪"},
	}
	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			line := alertLines([]Alert{{Severity: tt.severity, Message: "test message"}})
			if !strings.HasPrefix(line, tt.emoji) {
				t.Errorf("line %q does not start with %s", line, tt.emoji)
			}
		})
	}
}
