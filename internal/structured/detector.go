package structured

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/danve93/Amber-sub001/internal/llm"
)

// DetectorConfig controls intent detection and the fallback classifier gate.
type DetectorConfig struct {
	// DefaultLimit is used when the query names no explicit bound.
	DefaultLimit int

	// MaxLimit caps any limit, explicit or default.
	MaxLimit int

	// FallbackEnabled turns on LLM classification for ambiguous queries.
	// The fallback requires a Classifier to be wired; with none it is
	// silently off.
	FallbackEnabled bool

	// FallbackTimeout bounds a single fallback classification call.
	FallbackTimeout time.Duration

	// MinConfidence is the floor below which a fallback answer is discarded.
	MinConfidence float64

	// FallbackRatePerMinute throttles fallback calls across all requests.
	FallbackRatePerMinute int
}

// DefaultDetectorConfig returns the standard detection settings.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		DefaultLimit:          DefaultLimit,
		MaxLimit:              MaxLimit,
		FallbackEnabled:       true,
		FallbackTimeout:       2 * time.Second,
		MinConfidence:         0.6,
		FallbackRatePerMinute: 30,
	}
}

// rule pairs an anchored pattern with its target query type. Rules are
// evaluated in declaration order and the first match wins; there is no
// scoring among rules.
type rule struct {
	pattern *regexp.Regexp
	qtype   QueryType
}

// intentRules is the ordered pattern list. All patterns run against a
// normalized query (lowercased, trimmed, trailing punctuation and any
// explicit limit clause removed) and are anchored at both ends so a match
// claims the whole question, not a fragment of a longer one.
var intentRules = []rule{
	{
		qtype: QueryTypeCountDocuments,
		pattern: regexp.MustCompile(`^(?:how\s+many|count(?:\s+(?:of|the|all))?|number\s+of|total(?:\s+number\s+of)?)\s+` +
			`(?:documents|docs|files)` +
			`(?:\s+(?:are|do|does|exist|have|in)\b[\w\s]*)?$`),
	},
	{
		qtype: QueryTypeCountEntities,
		pattern: regexp.MustCompile(`^(?:how\s+many|count(?:\s+(?:of|the|all))?|number\s+of|total(?:\s+number\s+of)?)\s+` +
			`(?:(?P<entity_type>[a-z][a-z0-9_-]*)\s+)?(?:entities|entity\s+nodes?)` +
			`(?:\s+(?:are|do|does|exist|have|in)\b[\w\s]*)?$`),
	},
	{
		qtype: QueryTypeListDocuments,
		pattern: regexp.MustCompile(`^(?:list|show(?:\s+me)?|display|get|give\s+me)\s+(?:all\s+|my\s+)?(?:the\s+)?` +
			`(?:documents|docs|files)` +
			`(?:\s+(?:named|called|containing|matching|like)\s+(?P<filename>\S+))?` +
			`(?:\s+in\s+(?:the\s+)?(?:system|database|graph|knowledge\s+base|kb))?$`),
	},
	{
		qtype: QueryTypeListDocuments,
		pattern: regexp.MustCompile(`^(?:what|which)\s+(?:documents|docs|files)\s+` +
			`(?:do\s+we\s+have|are\s+(?:there|available|stored)|exist)$`),
	},
	{
		qtype: QueryTypeListEntities,
		pattern: regexp.MustCompile(`^(?:list|show(?:\s+me)?|display|get|give\s+me)\s+(?:all\s+|the\s+)?` +
			`(?:(?P<entity_type>[a-z][a-z0-9_-]*)\s+)?(?:entities|entity\s+nodes?)` +
			`(?:\s+of\s+type\s+(?P<entity_type2>[a-z][a-z0-9_-]*))?` +
			`(?:\s+in\s+(?:the\s+)?(?:system|database|graph|knowledge\s+base|kb))?$`),
	},
	{
		qtype: QueryTypeListRelationships,
		pattern: regexp.MustCompile(`^(?:list|show(?:\s+me)?|display|get|give\s+me)\s+(?:all\s+|the\s+)?` +
			`(?:relationships?|relations?|connections?|edges?)` +
			`(?:\s+in\s+(?:the\s+)?(?:system|database|graph|knowledge\s+base|kb))?$`),
	},
}

// limitPattern extracts an explicit row bound anywhere in the query.
var limitPattern = regexp.MustCompile(`\b(?:limit|top|first)\s+(\d+)\b`)

// interrogativePattern marks a query shaped like a question.
var interrogativePattern = regexp.MustCompile(`^(?:what|which|who|where|when|why|how|is|are|do|does|did|can|could|will|would)\b`)

// domainNounPattern marks vocabulary the structured templates can answer
// questions about.
var domainNounPattern = regexp.MustCompile(`\b(?:documents?|docs?|files?|entit(?:y|ies)|relation(?:ship)?s?|connections?|edges?|nodes?|chunks?|graph)\b`)

// ambiguousWordLimit is the length under which an unmatched query is still
// worth a fallback classification.
const ambiguousWordLimit = 8

// Detector resolves natural-language queries to structured intents.
//
// The pattern path is synchronous and in-memory. The optional fallback path
// calls an LLM classifier under a bounded timeout and a shared rate limiter,
// and fails open: any error, timeout, rate-limit rejection, or
// low-confidence answer resolves to not_structured. Detect never returns an
// error.
type Detector struct {
	config     DetectorConfig
	classifier llm.Classifier
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewDetector creates a detector. classifier may be nil, which disables the
// fallback path regardless of configuration.
func NewDetector(config DetectorConfig, classifier llm.Classifier, logger *slog.Logger) *Detector {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = DefaultLimit
	}
	if config.MaxLimit <= 0 {
		config.MaxLimit = MaxLimit
	}
	if config.DefaultLimit > config.MaxLimit {
		config.DefaultLimit = config.MaxLimit
	}
	if config.FallbackTimeout <= 0 {
		config.FallbackTimeout = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if config.FallbackRatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.FallbackRatePerMinute)), 5)
	}

	return &Detector{
		config:     config,
		classifier: classifier,
		limiter:    limiter,
		logger:     logger,
	}
}

// Detect classifies the query. The first matching pattern rule wins; when no
// rule matches and the query shape is ambiguous, the fallback classifier is
// consulted. The result is always a usable intent, worst case not_structured.
func (d *Detector) Detect(ctx context.Context, query string) Intent {
	normalized := normalizeQuery(query)
	if normalized == "" {
		return NotStructuredIntent()
	}

	limit, remainder := d.extractLimit(normalized)

	for _, r := range intentRules {
		match := r.pattern.FindStringSubmatch(remainder)
		if match == nil {
			continue
		}
		return Intent{
			Type:    r.qtype,
			Filters: extractFilters(r.pattern, match),
			Limit:   limit,
		}
	}

	if d.shouldFallBack(normalized) {
		if qtype, ok := d.classifyFallback(ctx, query); ok {
			return Intent{Type: qtype, Filters: map[string]string{}, Limit: limit}
		}
	}

	return NotStructuredIntent()
}

// normalizeQuery lowercases, trims, and strips trailing punctuation so
// pattern rules see a canonical form.
func normalizeQuery(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	q = strings.TrimRight(q, " \t?!.")
	return strings.Join(strings.Fields(q), " ")
}

// extractLimit pulls an explicit "limit N" / "top N" / "first N" clause out
// of the query, returning the clamped limit and the query with the clause
// removed. Without an explicit clause the default applies.
func (d *Detector) extractLimit(query string) (int, string) {
	limit := d.config.DefaultLimit

	match := limitPattern.FindStringSubmatch(query)
	if match != nil {
		n, err := strconv.Atoi(match[1])
		switch {
		case err != nil:
			// Absurdly large numeral; the request is explicit, so cap it.
			limit = d.config.MaxLimit
		case n >= 1:
			limit = n
		}
		query = limitPattern.ReplaceAllString(query, " ")
		query = strings.TrimSpace(strings.Join(strings.Fields(query), " "))
	}

	if limit > d.config.MaxLimit {
		limit = d.config.MaxLimit
	}
	if limit < 1 {
		limit = 1
	}

	return limit, query
}

// extractFilters collects non-empty named capture groups. The entity_type2
// alias exists because a pattern cannot reuse a group name for alternate
// positions of the same filter.
func extractFilters(pattern *regexp.Regexp, match []string) map[string]string {
	filters := map[string]string{}
	for i, name := range pattern.SubexpNames() {
		if name == "" || i >= len(match) || match[i] == "" {
			continue
		}
		if name == "entity_type2" {
			name = FilterEntityType
		}
		filters[name] = match[i]
	}
	return filters
}

// shouldFallBack applies the ambiguity gate: unmatched queries that are
// short, interrogative, or mention domain vocabulary may still be structured
// questions phrased outside the pattern list.
func (d *Detector) shouldFallBack(normalized string) bool {
	if !d.config.FallbackEnabled || d.classifier == nil {
		return false
	}

	if len(strings.Fields(normalized)) <= ambiguousWordLimit {
		return true
	}
	if interrogativePattern.MatchString(normalized) {
		return true
	}
	return domainNounPattern.MatchString(normalized)
}

// classifyFallback consults the LLM classifier under the configured timeout
// and rate limit. It fails open: every failure mode yields (_, false) and is
// visible only in logs.
func (d *Detector) classifyFallback(ctx context.Context, query string) (QueryType, bool) {
	if d.limiter != nil && !d.limiter.Allow() {
		d.logger.DebugContext(ctx, "fallback classification skipped",
			"reason", "rate_limited")
		return QueryTypeNotStructured, false
	}

	classifyCtx, cancel := context.WithTimeout(ctx, d.config.FallbackTimeout)
	defer cancel()

	token, confidence, err := d.classifier.Classify(classifyCtx, query)
	if err != nil {
		reason := "error"
		if classifyCtx.Err() != nil {
			reason = "timeout"
		}
		d.logger.WarnContext(ctx, "fallback classification failed",
			"reason", reason,
			"error", err)
		return QueryTypeNotStructured, false
	}

	qtype, ok := ParseQueryType(token)
	if !ok {
		return QueryTypeNotStructured, false
	}
	if confidence < d.config.MinConfidence {
		d.logger.DebugContext(ctx, "fallback classification below confidence floor",
			"query_type", qtype,
			"confidence", confidence)
		return QueryTypeNotStructured, false
	}

	d.logger.DebugContext(ctx, "fallback classification accepted",
		"query_type", qtype,
		"confidence", confidence)
	return qtype, true
}
