package reply

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/mredag/MPARB/internal/model/event"
)

const generationSystemPrompt = `You are the customer communication assistant of a Turkish local business.
You answer inbound customer messages and public reviews on behalf of the business.

Rules:
- Reply in the customer's language. For Turkish always use the formal "Siz" register.
- Keep the reply under 450 characters.
- {mode_rules}

Respond with a single JSON object and nothing else:
{{"sentiment": "Positive|Neutral|Negative", "intent": "<one short label such as appointment, pricing, greeting, complaint, general>", "reply_text": "<the reply>", "language": "<ISO 639-1 code>"}}`

const generationUserPrompt = `Channel: {channel}
Customer message:
{customer_message}

Conversation context:
{context}`

var modeRules = map[GenerationMode]string{
	GenFreeText:    "Write a warm, helpful direct-message reply that addresses the customer's request.",
	GenReviewReply: "Write a professional public reply to the review. Absolutely no emojis or decorative symbols.",
	GenDraft:       "Write a careful draft for a human agent to review before sending. Acknowledge the problem, do not make promises.",
}

// LLMGenerator produces replies through a compiled prompt-and-model chain.
type LLMGenerator struct {
	chain   compose.Runnable[map[string]any, *schema.Message]
	timeout time.Duration
}

// NewLLMGenerator compiles the generation chain around the supplied
// chat model. The timeout bounds every Generate call.
func NewLLMGenerator(ctx context.Context, chatModel model.ChatModel, timeout time.Duration) (*LLMGenerator, error) {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(generationSystemPrompt),
		schema.UserMessage(generationUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile generation chain: %w", err)
	}

	return &LLMGenerator{chain: runnable, timeout: timeout}, nil
}

func (g *LLMGenerator) Generate(ctx context.Context, req Request) (Result, error) {
	rules, ok := modeRules[req.Mode]
	if !ok {
		rules = modeRules[GenFreeText]
	}

	contextLines := "none"
	if len(req.Context) > 0 {
		contextLines = strings.Join(req.Context, "\n")
	}

	input := map[string]any{
		"mode_rules":       rules,
		"channel":          string(req.Platform),
		"customer_message": strings.TrimSpace(req.Text),
		"context":          contextLines,
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	msg, err := g.chain.Invoke(callCtx, input)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return Result{}, fmt.Errorf("%w: empty model response", ErrMalformed)
	}

	return parseGenerationOutput(msg.Content)
}

type generationPayload struct {
	Sentiment string `json:"sentiment"`
	Intent    string `json:"intent"`
	ReplyText string `json:"reply_text"`
	Language  string `json:"language"`
}

// parseGenerationOutput extracts the JSON object from the model output,
// tolerating prose around it the same way the model sometimes wraps
// structured answers.
func parseGenerationOutput(content string) (Result, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return Result{}, fmt.Errorf("%w: no json object in model output", ErrMalformed)
	}

	payload := generationPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	sentimentLabel, ok := parseSentimentLabel(payload.Sentiment)
	if !ok {
		return Result{}, fmt.Errorf("%w: unknown sentiment %q", ErrMalformed, payload.Sentiment)
	}

	language := strings.ToLower(strings.TrimSpace(payload.Language))
	if language == "" {
		language = "tr"
	}

	return Result{
		Sentiment: sentimentLabel,
		Intent:    strings.ToLower(strings.TrimSpace(payload.Intent)),
		ReplyText: strings.TrimSpace(payload.ReplyText),
		Language:  language,
	}, nil
}

func parseSentimentLabel(raw string) (event.Sentiment, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "positive":
		return event.SentimentPositive, true
	case "neutral":
		return event.SentimentNeutral, true
	case "negative":
		return event.SentimentNegative, true
	}
	return "", false
}
