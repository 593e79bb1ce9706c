package alert

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSlackNotifierPostsText(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("invalid payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlack(srv.URL)
	err := n.Notify(context.Background(), Alert{
		CorrelationID: "corr-1",
		Severity:      SeverityCritical,
		Summary:       "delivery attempts exhausted for sender-whatsapp",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}

	text := got["text"]
	if !strings.Contains(text, "critical") {
		t.Errorf("severity missing from %q", text)
	}
	if !strings.Contains(text, "corr-1") {
		t.Errorf("correlation id missing from %q", text)
	}
}

func TestSlackNotifierReportsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewSlack(srv.URL)
	if err := n.Notify(context.Background(), Alert{Severity: SeverityWarning, Summary: "x"}); err == nil {
		t.Fatal("expected error on 500 response")
	}
}
