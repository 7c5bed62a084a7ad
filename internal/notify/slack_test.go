package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hamed0406/livestatus/internal/livesystem"
)

func TestSlack_OK(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		got = payload["text"]
		w.WriteHeader(200)
	}))
	defer ts.Close()

	s := NewSlack(ts.URL)
	if s == nil {
		t.Fatal("expected slack client")
	}
	if err := s.Send(context.Background(), "Title", "Hello"); err != nil {
		t.Fatalf("send err: %v", err)
	}
	if got != "*Title*\nHello" {
		t.Fatalf("payload not as expected: %q", got)
	}
}

func TestSlack_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer ts.Close()

	err := NewSlack(ts.URL).Send(context.Background(), "X", "Y")
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected non-2xx error, got %v", err)
	}
}

func TestNewSlack_EmptyWebhookIsNil(t *testing.T) {
	if NewSlack("") != nil {
		t.Fatal("empty webhook should disable slack")
	}
}

type failing struct{ err error }

func (f failing) Send(context.Context, string, string) error { return f.err }

func TestMulti_CollectsEveryError(t *testing.T) {
	a, b := errors.New("a"), errors.New("b")
	err := Multi{failing{a}, nil, failing{nil}, failing{b}}.Send(context.Background(), "t", "x")
	if !errors.Is(err, a) || !errors.Is(err, b) {
		t.Fatalf("want both errors, got %v", err)
	}
}

func TestDownReport(t *testing.T) {
	up := livesystem.Cards{
		Profile: livesystem.Card{Title: livesystem.ProfileTitle, OK: true},
		BFF:     livesystem.Card{Title: livesystem.BFFTitle, OK: true},
	}
	if _, _, ok := DownReport(up); !ok {
		t.Fatal("all cards up should report ok")
	}

	down := livesystem.Cards{
		Profile: livesystem.Card{Title: livesystem.ProfileTitle, Error: "timeout of 8000ms exceeded"},
		BFF:     livesystem.Card{Title: livesystem.BFFTitle, Loading: true},
	}
	title, text, ok := DownReport(down)
	if ok {
		t.Fatal("expected a report")
	}
	if title == "" {
		t.Fatal("empty title")
	}
	if !strings.Contains(text, "Profile Service: timeout of 8000ms exceeded") || !strings.Contains(text, "Frontend BFF Health: no answer yet") {
		t.Fatalf("unexpected text %q", text)
	}
}
