package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mredag/MPARB/internal/config"
	"github.com/mredag/MPARB/internal/model/event"
)

type recordingProcessor struct {
	mu     sync.Mutex
	events []event.Event
	done   chan struct{}
}

func newRecordingProcessor() *recordingProcessor {
	return &recordingProcessor{done: make(chan struct{}, 8)}
}

func (p *recordingProcessor) Process(_ context.Context, ev event.Event) event.Event {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	p.done <- struct{}{}
	return ev
}

func (p *recordingProcessor) wait(t *testing.T) event.Event {
	t.Helper()
	select {
	case <-p.done:
	case <-time.After(time.Second):
		t.Fatal("pipeline never invoked")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

func newTestServer(proc *recordingProcessor, channels config.ChannelConfig) *httptest.Server {
	r := chi.NewRouter()
	New(proc, channels).RegisterRoutes(r)
	return httptest.NewServer(r)
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func TestVerifyEchoesChallengeWhenTokenMatches(t *testing.T) {
	proc := newRecordingProcessor()
	srv := newTestServer(proc, config.ChannelConfig{InstagramVerifyToken: "secret"})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/webhook/instagram?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=12345")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "12345" {
		t.Errorf("challenge echo = %q", body)
	}
}

func TestVerifyEchoesChallengeWhenNoTokenConfigured(t *testing.T) {
	proc := newRecordingProcessor()
	srv := newTestServer(proc, config.ChannelConfig{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/webhook/whatsapp?hub.mode=subscribe&hub.challenge=abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "abc" {
		t.Errorf("challenge echo = %q", body)
	}
}

func TestVerifyRejectsTokenMismatch(t *testing.T) {
	proc := newRecordingProcessor()
	srv := newTestServer(proc, config.ChannelConfig{WhatsAppVerifyToken: "secret"})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/webhook/whatsapp?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "verification failed" {
		t.Errorf("body = %q", body)
	}
}

func TestMessageIntakeAcceptsAndRunsPipeline(t *testing.T) {
	proc := newRecordingProcessor()
	srv := newTestServer(proc, config.ChannelConfig{})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/webhook/instagram", map[string]any{
		"sender_id":   "user_123",
		"text":        "Randevu almak istiyorum",
		"received_at": time.Now().UTC().Format(time.RFC3339),
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var ack acceptedResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Status != "accepted" || ack.CorrelationID == "" {
		t.Fatalf("ack = %+v", ack)
	}

	ev := proc.wait(t)
	if ev.Platform != event.PlatformInstagram || ev.SenderID != "user_123" {
		t.Errorf("pipeline event = %+v", ev)
	}
	if ev.CorrelationID != ack.CorrelationID {
		t.Errorf("ack id %q != pipeline id %q", ack.CorrelationID, ev.CorrelationID)
	}
}

func TestMessageIntakePreservesUpstreamCorrelationID(t *testing.T) {
	proc := newRecordingProcessor()
	srv := newTestServer(proc, config.ChannelConfig{})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/webhook/whatsapp", map[string]any{
		"correlation_id": "upstream-42",
		"sender_id":      "905551234567",
		"text":           "Merhaba",
	})
	defer resp.Body.Close()

	var ack acceptedResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.CorrelationID != "upstream-42" {
		t.Errorf("ack correlation id = %q", ack.CorrelationID)
	}

	ev := proc.wait(t)
	if ev.CorrelationID != "upstream-42" {
		t.Errorf("pipeline correlation id = %q", ev.CorrelationID)
	}
}

func TestMessageIntakeRejectsMissingFields(t *testing.T) {
	proc := newRecordingProcessor()
	srv := newTestServer(proc, config.ChannelConfig{})
	defer srv.Close()

	cases := []map[string]any{
		{"text": "Merhaba"},
		{"sender_id": "user_1"},
		{"sender_id": "user_1", "text": "Merhaba", "received_at": "not-a-time"},
	}
	for _, payload := range cases {
		resp := postJSON(t, srv.URL+"/webhook/instagram", payload)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("payload %v: status = %d, want 400", payload, resp.StatusCode)
		}
	}

	proc.mu.Lock()
	defer proc.mu.Unlock()
	if len(proc.events) != 0 {
		t.Errorf("rejected payloads reached pipeline: %+v", proc.events)
	}
}

func TestReviewIntakeAccepts(t *testing.T) {
	proc := newRecordingProcessor()
	srv := newTestServer(proc, config.ChannelConfig{})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/webhook/google-reviews", map[string]any{
		"review_id": "rev-9",
		"rating":    5,
		"author":    "Ahmet Yılmaz",
		"text":      "Harika hizmet",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	ev := proc.wait(t)
	if ev.Platform != event.PlatformGoogleReviews || ev.ReviewID != "rev-9" || ev.Rating != 5 {
		t.Errorf("pipeline event = %+v", ev)
	}
	if ev.ReceivedAt.IsZero() {
		t.Error("received_at not defaulted")
	}
}

func TestReviewIntakeRejectsMissingReviewID(t *testing.T) {
	proc := newRecordingProcessor()
	srv := newTestServer(proc, config.ChannelConfig{})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/webhook/google-reviews", map[string]any{"rating": 4})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestReviewIntakeRejectsOutOfRangeRating(t *testing.T) {
	proc := newRecordingProcessor()
	srv := newTestServer(proc, config.ChannelConfig{})
	defer srv.Close()

	for _, rating := range []int{0, -1, 6, 9} {
		resp := postJSON(t, srv.URL+"/webhook/google-reviews", map[string]any{
			"review_id": "rev-range",
			"rating":    rating,
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("rating %d: status = %d, want 400", rating, resp.StatusCode)
		}
	}

	proc.mu.Lock()
	defer proc.mu.Unlock()
	if len(proc.events) != 0 {
		t.Errorf("out-of-range rating reached pipeline: %+v", proc.events)
	}
}
