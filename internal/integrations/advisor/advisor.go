package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/finmate/finmate-api/internal/config"
)

// emptyTip is returned when there is nothing to analyze; no external
// call is made in that case.
const emptyTip = "Start tracking your expenses to get personalized financial advice! 💰"

// fallbackTips is the canned pool used whenever the text generator is
// unconfigured or fails at call time. Both cases behave identically.
var fallbackTips = []string{
	"Try the 50/30/20 rule: 50% needs, 30% wants, 20% savings! 💰",
	"Set up automatic transfers to your savings account on payday! 🎯",
	"Track every coffee and snack - small expenses add up quickly! ☕",
	"Use cash for discretionary spending to feel the money leaving your hand! 💳",
	"Review your subscriptions monthly - cancel what you don't use! 📱",
}

// Expense is the spending summary entry the advisor reasons about.
type Expense struct {
	Amount   float64
	Category string
}

// Tip is one actionable tip with its category tag.
type Tip struct {
	Tip      string
	Category string
}

// Client asks an external text generator for one spending tip. A tips
// request never fails because the generator is down: every error path
// collapses into the canned pool.
type Client struct {
	apiKey string
	url    string
	model  string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new advisor client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		apiKey: cfg.GeminiAPIKey,
		url:    cfg.GeminiAPIURL,
		model:  cfg.GeminiModel,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

// Available reports whether the text generator is configured.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

// Advise produces one actionable tip for the given spending summary.
func (c *Client) Advise(ctx context.Context, email string, expenses []Expense) Tip {
	if len(expenses) == 0 {
		return Tip{Tip: emptyTip, Category: "general"}
	}
	if !c.Available() {
		return c.fallback()
	}

	raw, err := c.generate(ctx, c.buildPrompt(email, expenses))
	if err != nil {
		c.log.Errorf("Tip generation failed: %v", err)
		return c.fallback()
	}
	return parseTip(raw)
}

func (c *Client) fallback() Tip {
	return Tip{Tip: fallbackTips[rand.Intn(len(fallbackTips))], Category: "general"}
}

// buildPrompt embeds total spent, top category, transaction count and
// up to 5 most-recent expenses into the advisor prompt.
func (c *Client) buildPrompt(email string, expenses []Expense) string {
	var total float64
	sums := map[string]float64{}
	var order []string
	for _, e := range expenses {
		total += e.Amount
		if _, seen := sums[e.Category]; !seen {
			order = append(order, e.Category)
		}
		sums[e.Category] += e.Amount
	}

	// Strict comparison keeps the first-seen category on ties. Callers
	// must not rely on any particular tie-break.
	top := order[0]
	for _, cat := range order {
		if sums[cat] > sums[top] {
			top = cat
		}
	}

	recent := expenses
	if len(recent) > 5 {
		recent = recent[:5]
	}
	lines := make([]string, 0, len(recent))
	for _, e := range recent {
		lines = append(lines, fmt.Sprintf("- $%.2f on %s", e.Amount, e.Category))
	}

	return fmt.Sprintf(`You are a premium financial advisor for Gen-Z students and early earners.
Based on the following spending data, provide ONE specific, actionable tip that's:
- Practical and easy to implement immediately
- Relevant to their specific spending patterns
- Encouraging and positive in tone
- Include an emoji for Gen-Z appeal
- Focus on building wealth and financial independence

User Profile:
- Email: %s
- Spending Data: $%.2f total
- Top Category: %s ($%.2f)
- Transaction Count: %d

Recent expenses:
%s

Provide your response in this exact format:
Tip: [Your specific, actionable tip here] 💡
Category: [spending/saving/investing/general]`,
		email, total, top, sums[top], len(expenses), strings.Join(lines, "\n"))
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// generate requests a single completion from the generator.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.url, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text), nil
}

// parseTip extracts the "Tip:" and "Category:" segments from a raw
// completion. When either marker is missing the raw text becomes the
// tip, tagged "general".
func parseTip(raw string) Tip {
	if strings.Contains(raw, "Tip:") && strings.Contains(raw, "Category:") {
		parts := strings.SplitN(raw, "Category:", 2)
		tip := strings.TrimSpace(strings.Replace(parts[0], "Tip:", "", 1))
		category := strings.TrimSpace(parts[1])
		return Tip{Tip: tip, Category: category}
	}
	return Tip{Tip: raw, Category: "general"}
}
