package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/danve93/Amber-sub001/internal/types"
)

// TokenNotStructured is the classification token for queries that need the
// general retrieval pipeline rather than a structured graph query.
const TokenNotStructured = "not_structured"

// Classifier resolves an ambiguous natural-language query to a structured
// query type token. It backs the detector's fallback path; the detector
// treats any error or low-confidence answer as not_structured.
type Classifier interface {
	// Classify returns the type token for the query, a confidence in [0, 1],
	// and an error if the provider could not be reached or answered garbage.
	// A token outside the recognized set is normalized to TokenNotStructured.
	Classify(ctx context.Context, query string) (string, float64, error)
}

// Provider names accepted by ProviderConfig.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// ProviderConfig selects and configures the LLM backing the classifier.
type ProviderConfig struct {
	// Provider is one of "openai", "anthropic", or "ollama".
	Provider string

	// Model overrides the provider's default model.
	Model string

	// BaseURL overrides the provider endpoint (OpenAI-compatible gateways,
	// Ollama server address).
	BaseURL string

	// APIKey authenticates against the provider. When empty the provider's
	// conventional environment variable is consulted.
	APIKey string
}

// LLMClassifier implements Classifier over a langchaingo chat model.
//
// The prompt instructs the model to answer with a single JSON object naming
// one recognized token; parsing is tolerant of markdown fences, surrounding
// prose, whitespace, and case, and a bare token without JSON is accepted.
type LLMClassifier struct {
	model       llms.Model
	validTokens map[string]struct{}
	tokenList   string
}

// NewLLMClassifier builds a classifier for the configured provider.
// validTokens is the closed set of type tokens the caller recognizes;
// TokenNotStructured is always part of the set.
func NewLLMClassifier(cfg ProviderConfig, validTokens []string) (*LLMClassifier, error) {
	model, err := newModel(cfg)
	if err != nil {
		return nil, err
	}
	return NewLLMClassifierWithModel(model, validTokens), nil
}

// NewLLMClassifierWithModel builds a classifier over an existing model.
// Used by tests to inject a fake.
func NewLLMClassifierWithModel(model llms.Model, validTokens []string) *LLMClassifier {
	valid := make(map[string]struct{}, len(validTokens)+1)
	list := make([]string, 0, len(validTokens)+1)
	for _, token := range validTokens {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		if _, seen := valid[token]; seen {
			continue
		}
		valid[token] = struct{}{}
		list = append(list, token)
	}
	if _, ok := valid[TokenNotStructured]; !ok {
		valid[TokenNotStructured] = struct{}{}
		list = append(list, TokenNotStructured)
	}

	return &LLMClassifier{
		model:       model,
		validTokens: valid,
		tokenList:   strings.Join(list, ", "),
	}
}

// Classify sends the query to the model and parses its answer.
func (c *LLMClassifier) Classify(ctx context.Context, query string) (string, float64, error) {
	prompt := fmt.Sprintf(`You classify search queries against a document knowledge base.
Answer with a single JSON object of the form {"type": "<token>", "confidence": <number between 0 and 1>}.
<token> must be exactly one of: %s.
Choose %s when the question requires reading document content rather than listing or counting stored items.
Do not add any other text.

Query: %q`, c.tokenList, TokenNotStructured, query)

	resp, err := c.model.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeHuman, prompt),
		},
		llms.WithTemperature(0),
		llms.WithMaxTokens(64),
	)
	if err != nil {
		return "", 0, types.WrapRetryableError(ErrCodeLLMRequestFailed,
			"classification request failed", err)
	}

	if len(resp.Choices) == 0 {
		return "", 0, types.NewError(ErrCodeLLMResponseInvalid,
			"model returned no choices")
	}

	token, confidence := c.parseResponse(resp.Choices[0].Content)
	return token, confidence, nil
}

// classification mirrors the JSON shape the prompt requests. Confidence is a
// pointer so an omitted field can default to full confidence instead of zero.
type classification struct {
	Type       string   `json:"type"`
	Confidence *float64 `json:"confidence"`
}

// parseResponse extracts the token and confidence from the model output.
// Unknown tokens collapse to TokenNotStructured with zero confidence.
func (c *LLMClassifier) parseResponse(content string) (string, float64) {
	if jsonStr, ok := extractJSONObject(content); ok {
		var parsed classification
		if err := json.Unmarshal([]byte(jsonStr), &parsed); err == nil {
			token := normalizeToken(parsed.Type)
			if _, valid := c.validTokens[token]; valid {
				confidence := 1.0
				if parsed.Confidence != nil {
					confidence = clamp01(*parsed.Confidence)
				}
				return token, confidence
			}
			return TokenNotStructured, 0
		}
	}

	// No JSON: accept a bare token answer.
	token := normalizeToken(content)
	if _, valid := c.validTokens[token]; valid {
		return token, 1.0
	}

	return TokenNotStructured, 0
}

// newModel constructs the langchaingo model for the configured provider.
func newModel(cfg ProviderConfig) (llms.Model, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, types.NewError(ErrCodeLLMAuthFailed,
				"openai api key missing (set llm.api_key or OPENAI_API_KEY)")
		}
		opts := []openai.Option{openai.WithToken(apiKey)}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, types.WrapError(ErrCodeLLMInvalidConfig,
				"building openai client", err)
		}
		return model, nil

	case ProviderAnthropic:
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, types.NewError(ErrCodeLLMAuthFailed,
				"anthropic api key missing (set llm.api_key or ANTHROPIC_API_KEY)")
		}
		opts := []anthropic.Option{anthropic.WithToken(apiKey)}
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		model, err := anthropic.New(opts...)
		if err != nil {
			return nil, types.WrapError(ErrCodeLLMInvalidConfig,
				"building anthropic client", err)
		}
		return model, nil

	case ProviderOllama:
		serverURL := cfg.BaseURL
		if serverURL == "" {
			serverURL = "http://localhost:11434"
		}
		opts := []ollama.Option{ollama.WithServerURL(serverURL)}
		if cfg.Model != "" {
			opts = append(opts, ollama.WithModel(cfg.Model))
		}
		model, err := ollama.New(opts...)
		if err != nil {
			return nil, types.WrapError(ErrCodeLLMInvalidConfig,
				"building ollama client", err)
		}
		return model, nil

	default:
		return nil, types.NewError(ErrCodeLLMInvalidConfig,
			fmt.Sprintf("unknown provider %q, must be one of: openai, anthropic, ollama", cfg.Provider))
	}
}

// normalizeToken lowercases and strips quoting/punctuation the model may add
// around a bare token answer.
func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, "\"'`.:")
	return strings.TrimSpace(s)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// codeBlockPattern matches markdown code blocks with optional language tag.
var codeBlockPattern = regexp.MustCompile("(?s)```(\\w*)\\s*\\n(.+?)\\n```")

// extractJSONObject finds a JSON object in model output that may be wrapped
// in markdown fences or surrounded by prose.
func extractJSONObject(response string) (string, bool) {
	// JSON inside ```json ... ``` or ``` ... ``` blocks takes priority.
	for _, match := range codeBlockPattern.FindAllStringSubmatch(response, -1) {
		if len(match) < 3 {
			continue
		}
		lang := strings.ToLower(match[1])
		if lang != "" && lang != "json" {
			continue
		}
		content := strings.TrimSpace(match[2])
		if strings.HasPrefix(content, "{") && isValidJSON(content) {
			return content, true
		}
	}

	// Fall back to the first balanced {...} in the raw text.
	start := strings.Index(response, "{")
	if start < 0 {
		return "", false
	}
	if jsonStr := balancedObject(response[start:]); jsonStr != "" && isValidJSON(jsonStr) {
		return jsonStr, true
	}

	return "", false
}

// balancedObject returns the prefix of s up to the brace matching s[0],
// skipping braces inside JSON strings.
func balancedObject(s string) string {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		if c == '{' {
			depth++
		} else if c == '}' {
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}

	return ""
}

func isValidJSON(s string) bool {
	var js json.RawMessage
	return json.Unmarshal([]byte(s), &js) == nil
}

// Ensure LLMClassifier implements Classifier at compile time.
var _ Classifier = (*LLMClassifier)(nil)
