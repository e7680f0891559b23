package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
)

type captureMailer struct {
	sent []Message
}

func (c *captureMailer) Send(ctx context.Context, msg Message) error {
	c.sent = append(c.sent, msg)
	return nil
}

func (c *captureMailer) Name() string { return "capture" }

func TestDeckReadyEscapesContent(t *testing.T) {
	mailer := &captureMailer{}
	n := NewNotifier(mailer, "https://decks.example.com/")

	d := &deck.FinalDeck{
		Title:    "Q4 <Review>",
		Metadata: deck.DeckMetadata{QualityScore: 82},
		Slides: []deck.DeckSlide{
			{StyledSlide: deck.StyledSlide{Title: "Revenue"}, SlideNumber: 1},
		},
	}
	if err := n.DeckReady(context.Background(), "owner@example.com", "job-1", d); err != nil {
		t.Fatal(err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.To != "owner@example.com" || !strings.Contains(msg.Subject, "Q4 <Review>") {
		t.Fatalf("unexpected message %+v", msg)
	}
	if strings.Contains(msg.HTML, "<Review>") || !strings.Contains(msg.HTML, "Q4 &lt;Review&gt;") {
		t.Fatal("deck title must be escaped in the body")
	}
	if !strings.Contains(msg.HTML, "https://decks.example.com/decks/job-1") || !strings.Contains(msg.HTML, "1. Revenue") {
		t.Fatalf("body misses link or outline: %s", msg.HTML)
	}
}

func TestNotifierSkipsWithoutRecipientOrMailer(t *testing.T) {
	mailer := &captureMailer{}
	if err := NewNotifier(mailer, "").GenerationFailed(context.Background(), "", "job-1", errors.New("boom")); err != nil {
		t.Fatal(err)
	}
	if len(mailer.sent) != 0 {
		t.Fatal("no recipient means no email")
	}
	if err := NewNotifier(nil, "").GenerationFailed(context.Background(), "a@b.c", "job-1", errors.New("boom")); err != nil {
		t.Fatal(err)
	}
}

func TestResendMailerRequest(t *testing.T) {
	var got map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewResendMailer("re_key", Sender{Email: "decks@example.com", Name: "Decks"})
	m.endpoint = srv.URL
	if err := m.Send(context.Background(), Message{To: "a@b.c", Subject: "hi", HTML: "<p>x</p>"}); err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer re_key" || got["from"] != "Decks <decks@example.com>" || got["subject"] != "hi" {
		t.Fatalf("unexpected request %v %v", auth, got)
	}
}

func TestBrevoMailerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != "xkey" {
			t.Errorf("missing api key header")
		}
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"bad key"}`))
	}))
	defer srv.Close()

	m := NewBrevoMailer("xkey", Sender{Email: "decks@example.com"})
	m.endpoint = srv.URL
	err := m.Send(context.Background(), Message{To: "a@b.c", Subject: "hi"})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status error, got %v", err)
	}

	if mailer, err := NewMailer("", "", Sender{}); mailer != nil || err != nil {
		t.Fatal("empty provider disables email")
	}
	if _, err := NewMailer("smtp", "k", Sender{}); err == nil {
		t.Fatal("expected unknown provider error")
	}
}
