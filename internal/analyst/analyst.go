// Package analyst turns the market snapshot and the deduplicated news feed
// into a trader-facing briefing via Gemini. When the model is unreachable or
// the request budget is spent, a plain fallback briefing is produced instead
// so a scheduled run always delivers something.
package analyst

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/macrodesk/macrobrief/internal/logger"
)

const systemPrompt = `You are a Senior Global Macro Strategist for FICC/Treasury trading desks.

Your task:
Generate a Slack-style market summary that includes ONLY:
- Significant market movements
- OR potential drivers with real market-moving impact
Nothing else.
No filler, no additional commentary, no education, no footnotes.

Absolute formatting requirements (MUST follow exactly every time):
1. Output MUST be a Markdown formatted string.
2. Sections must appear only if they contain at least one significant item.
3. Sections must appear in the exact order below.
4. Section titles must match exactly including emojis and spacing.
5. Structure inside each section must match exactly with following order and rules:
    - Title line (with exact emoji and spacing), in bold
    - Bullets (•) describing the significant move
    - Next sub-bullet line starts with: "  ‣ Reason: "
    - Next sub-bullet line starts with: "  ‣ Impact: "
    - No restriction on number of bullets within a section, and each must follow the above format.
    - Blank line only between major sections
    - Never add extra commentary, greetings, conclusions, headings, or disclaimers

6. only List market level of those with significant movements, separate by asset class.
    - format example: "FX:\n  EURUSD 1.1613 (+0.02%) | USDJPY 155.77 (+0.14%) "

7. If a section has no significant movements, do NOT display that section at all.

8. A movement is "significant" ONLY IF:
- FX: > ±0.2% OR breaking a key level OR policy-driven
- Rates: > 10bp move OR policy-driven OR repricing
- VIX: > 5% change OR regime break
- Commodities: >1% OR supply/policy shock/major geopolitical events
- Potential driver: Only if it can meaningfully move markets (policy signals, geopolitical, data shock, liquidity events)

9. All text must be concise, easy-to-understand, trader-friendly. Tone:
    - MD-level: precise, macro-top-down, impact-oriented
    - Avoid long explanations; focus on market logic and actionable sentiment
    - The narrative and logic should be deep to the core: Why are things moving? Connection between rates/FX/Commodities

10. Watchlist should be key events that could significantly move markets, in brief and in sub-bullets.

Below is the exact output structure you must reproduce every time when generating a summary:

————————————————————
📈 Latest Market
• {market levels with movement in % separated by asset class}

————————————————————
🧭 Key Drivers
• {1-line driver}

————————————————————
💱 FX
• {significant FX moves}
  ‣ Reason: {reason}
  ‣ Impact: {market effect}

————————————————————
🌍 Rate
• {significant rates moves}
  ‣ Reason: {reason}
  ‣ Impact: {market effect}

————————————————————
⛽️ Commodities
• {significant commodities moves}
  ‣ Reason: {reason}
  ‣ Impact: {market effect}

————————————————————
👀 Watchlist
• {FX note}
• {Rates note}
• {Commods/Vol note}

Repeat:
- Omit any entire section if no significant item
- Keep all visible sections 100% identical in formatting
- Never add extra commentary outside the block
- Output only the summary

Now generate today's summary using this exact template.
`

const mixedInstruction = `Output Language: 'Chinglish' (roughly 65% simplified Chinese, 35% English).
Chinese controls the narrative and logic structure, English is used ONLY for key financial verbs, market concepts, and technical terms (e.g., re-price, carry unwind, term premium, safe-haven bid, policy divergence).
The final tone must sound like a bilingual mainland Chinese MD writing internal market notes. High signal density, clean phrasing, elegant Chinese-English mix.`

// languageInstruction maps a language mode to the prompt suffix controlling
// the output language. Unsupported modes are rejected rather than silently
// falling back to English.
func languageInstruction(mode string) (string, error) {
	switch mode {
	case "EN":
		return "Output Language: Professional English.", nil
	case "CN":
		return "Output Language: Professional simplified Chinese.", nil
	case "MIXED":
		return mixedInstruction, nil
	default:
		return "", fmt.Errorf("unsupported language mode %q", mode)
	}
}

// Input is everything one briefing is built from.
type Input struct {
	Timestamp   time.Time
	MarketData  string
	NewsFeed    []string
	DedupDigest string
}

// buildUserContent assembles the user turn of the conversation.
func buildUserContent(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current Time: %s\n\n", in.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC"))
	b.WriteString("[Market Data Snapshot]\n")
	b.WriteString(in.MarketData)
	b.WriteString("\n\n[Raw News Feed]\n")
	if len(in.NewsFeed) == 0 {
		b.WriteString("(no news collected in this window)\n")
	} else {
		for _, line := range in.NewsFeed {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	if in.DedupDigest != "" {
		b.WriteString("\n[Feed Duplication Digest]\n")
		b.WriteString(in.DedupDigest)
		b.WriteByte('\n')
	}
	b.WriteString("\nPlease write the analysis now.")
	return b.String()
}

// Client wraps the Gemini API for briefing generation.
type Client struct {
	client       *genai.Client
	model        string
	languageMode string
}

func NewClient(ctx context.Context, apiKey, languageMode string) (*Client, error) {
	if _, err := languageInstruction(languageMode); err != nil {
		return nil, err
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{client: client, model: "gemini-1.5-flash", languageMode: languageMode}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Generate produces one briefing from the given input.
func (c *Client) Generate(ctx context.Context, in Input) (string, error) {
	langInstr, err := languageInstruction(c.languageMode)
	if err != nil {
		return "", err
	}

	model := c.client.GenerativeModel(c.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt + "\n" + langInstr)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(buildUserContent(in)))
	if err != nil {
		return "", fmt.Errorf("failed to generate briefing: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out.WriteString(string(text))
		}
	}
	briefing := SanitizeBriefing(out.String())
	if briefing == "" {
		return "", fmt.Errorf("empty briefing from Gemini")
	}
	logger.Info("briefing generated", "model", c.model, "language_mode", c.languageMode, "chars", len(briefing))
	return briefing, nil
}

// Fallback builds a minimal briefing from the snapshot and the first
// headlines when the model is unavailable. It reuses the delivery path so
// the schedule still produces output.
func Fallback(in Input, maxHeadlines int) string {
	var b strings.Builder
	b.WriteString(in.MarketData)
	b.WriteString("\n**Top Headlines**\n")
	if len(in.NewsFeed) == 0 {
		b.WriteString("No market-moving headlines collected.\n")
		return b.String()
	}
	n := len(in.NewsFeed)
	if maxHeadlines > 0 && n > maxHeadlines {
		n = maxHeadlines
	}
	for _, line := range in.NewsFeed[:n] {
		b.WriteString("• ")
		b.WriteString(headlineOf(line))
		b.WriteByte('\n')
	}
	return b.String()
}

// headlineOf extracts "Title (Source)" from a feed line, falling back to the
// raw line when the fields are missing.
func headlineOf(line string) string {
	var source, title string
	for _, field := range strings.Split(line, " | ") {
		if v, ok := strings.CutPrefix(field, "Source: "); ok {
			source = v
		}
		if v, ok := strings.CutPrefix(field, "Title: "); ok {
			title = v
		}
	}
	if title == "" {
		return line
	}
	if source == "" {
		return title
	}
	return fmt.Sprintf("%s (%s)", title, source)
}
