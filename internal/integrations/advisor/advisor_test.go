package advisor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestClient(apiKey, url string) *Client {
	return &Client{
		apiKey: apiKey,
		url:    url,
		model:  "gemini-pro",
		client: &http.Client{Timeout: time.Second},
		log:    quietLogger(),
	}
}

func inFallbackPool(tip string) bool {
	for _, canned := range fallbackTips {
		if tip == canned {
			return true
		}
	}
	return false
}

func TestAdviseEmptyExpenses(t *testing.T) {
	// The server must never be reached with nothing to analyze.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("generator called for empty expense list")
	}))
	defer srv.Close()

	tip := newTestClient("key", srv.URL).Advise(context.Background(), "user@example.com", nil)
	if tip.Category != "general" {
		t.Errorf("category = %q, want general", tip.Category)
	}
	if tip.Tip != emptyTip {
		t.Errorf("tip = %q, want the generic encouragement", tip.Tip)
	}
}

func TestAdviseUnconfiguredFallsBack(t *testing.T) {
	c := newTestClient("", "http://unused.invalid")
	expenses := []Expense{{Amount: 10, Category: "Food"}}
	for i := 0; i < 20; i++ {
		tip := c.Advise(context.Background(), "user@example.com", expenses)
		if tip.Category != "general" {
			t.Fatalf("category = %q, want general", tip.Category)
		}
		if !inFallbackPool(tip.Tip) {
			t.Fatalf("tip %q not drawn from the fallback pool", tip.Tip)
		}
	}
}

func TestAdviseGeneratorErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tip := newTestClient("key", srv.URL).Advise(context.Background(), "user@example.com",
		[]Expense{{Amount: 10, Category: "Food"}})
	if tip.Category != "general" || !inFallbackPool(tip.Tip) {
		t.Errorf("tip = %+v, want fallback-pool tip", tip)
	}
}

func TestAdviseParsesMarkers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "key" {
			t.Errorf("missing api key header")
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Tip: Cook at home twice a week 💡\nCategory: saving"}]}}]}`)
	}))
	defer srv.Close()

	tip := newTestClient("key", srv.URL).Advise(context.Background(), "user@example.com",
		[]Expense{{Amount: 42, Category: "Food"}})
	if tip.Tip != "Cook at home twice a week 💡" {
		t.Errorf("tip = %q", tip.Tip)
	}
	if tip.Category != "saving" {
		t.Errorf("category = %q, want saving", tip.Category)
	}
}

func TestAdviseRawCompletionWithoutMarkers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Just spend less than you earn."}]}}]}`)
	}))
	defer srv.Close()

	tip := newTestClient("key", srv.URL).Advise(context.Background(), "user@example.com",
		[]Expense{{Amount: 42, Category: "Food"}})
	if tip.Tip != "Just spend less than you earn." {
		t.Errorf("tip = %q", tip.Tip)
	}
	if tip.Category != "general" {
		t.Errorf("category = %q, want general", tip.Category)
	}
}

func TestBuildPromptTopCategory(t *testing.T) {
	c := newTestClient("key", "http://unused.invalid")

	prompt := c.buildPrompt("user@example.com", []Expense{
		{Amount: 20, Category: "Food"},
		{Amount: 50, Category: "Transport"},
		{Amount: 10, Category: "Food"},
	})
	if !strings.Contains(prompt, "Top Category: Transport ($50.00)") {
		t.Errorf("prompt missing top category:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Spending Data: $80.00 total") {
		t.Errorf("prompt missing total:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Transaction Count: 3") {
		t.Errorf("prompt missing count:\n%s", prompt)
	}

	// Equal sums keep the first-seen category.
	tied := c.buildPrompt("user@example.com", []Expense{
		{Amount: 30, Category: "Games"},
		{Amount: 30, Category: "Books"},
	})
	if !strings.Contains(tied, "Top Category: Games") {
		t.Errorf("tie not broken by first-seen order:\n%s", tied)
	}
}

func TestBuildPromptCapsRecentAtFive(t *testing.T) {
	c := newTestClient("key", "http://unused.invalid")
	expenses := make([]Expense, 8)
	for i := range expenses {
		expenses[i] = Expense{Amount: float64(i + 1), Category: "Food"}
	}
	prompt := c.buildPrompt("user@example.com", expenses)
	if got := strings.Count(prompt, "on Food"); got != 5 {
		t.Errorf("prompt lists %d recent expenses, want 5", got)
	}
}

func TestFallbackPoolSize(t *testing.T) {
	if len(fallbackTips) < 5 {
		t.Errorf("fallback pool has %d tips, want at least 5", len(fallbackTips))
	}
}
