package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/danve93/Amber-sub001/internal/types"
)

// ConfigValidator validates configuration values.
type ConfigValidator interface {
	Validate(cfg *Config) error
}

type validatorImpl struct {
	validate *validator.Validate
}

// NewValidator creates a ConfigValidator backed by go-playground/validator
// struct tags plus the cross-field rules tags cannot express.
func NewValidator() ConfigValidator {
	return &validatorImpl{validate: validator.New()}
}

// Validate checks cfg and reports every problem found, not just the first,
// so an operator can fix a config file in one edit.
func (v *validatorImpl) Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration is nil")
	}

	var problems []string

	if err := v.validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validation error: %w", err)
		}
		for _, e := range fieldErrs {
			problems = append(problems, describeFieldError(e))
		}
	}

	problems = append(problems, crossFieldProblems(cfg)...)

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s",
			strings.Join(problems, "\n  - "))
	}
	return nil
}

// crossFieldProblems holds the rules that span multiple fields or need
// domain knowledge, like the document status vocabulary.
func crossFieldProblems(cfg *Config) []string {
	var problems []string

	// The clamp ceiling must be able to hold the default.
	if cfg.Query.MaxLimit < cfg.Query.DefaultLimit {
		problems = append(problems, fmt.Sprintf(
			"query.max_limit (%d) must be >= query.default_limit (%d)",
			cfg.Query.MaxLimit, cfg.Query.DefaultLimit))
	}

	if cfg.Events.Provider == "redis" && cfg.Events.Redis.Addr == "" {
		problems = append(problems,
			"events.redis.addr must be set when events.provider is 'redis'")
	}

	// Stale statuses, when overridden, must name valid non-terminal statuses.
	for _, s := range cfg.Recovery.StaleStatuses {
		status := types.DocumentStatus(s)
		switch {
		case !status.IsValid():
			problems = append(problems, fmt.Sprintf(
				"recovery.stale_statuses contains unknown status %q", s))
		case status.IsTerminal():
			problems = append(problems, fmt.Sprintf(
				"recovery.stale_statuses must not contain terminal status %q", s))
		}
	}

	if cfg.Query.Fallback.Enabled {
		if cfg.Query.Fallback.Timeout <= 0 {
			problems = append(problems,
				"query.fallback.timeout must be positive when fallback is enabled")
		}
		if cfg.LLM.Provider == "" {
			problems = append(problems,
				"llm.provider must be set when query.fallback is enabled")
		}
	}

	return problems
}

// describeFieldError renders one tag violation with the config-file field
// path, so the message matches what the operator sees in YAML.
func describeFieldError(e validator.FieldError) string {
	path := fieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", path)
	case "min":
		return fmt.Sprintf("%s must be at least %s (got: %v)", path, e.Param(), e.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (got: %v)", path, e.Param(), e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got: %v)", path, e.Param(), e.Value())
	case "url":
		return fmt.Sprintf("%s must be a valid URL (got: %v)", path, e.Value())
	default:
		return fmt.Sprintf("%s failed validation '%s' (got: %v)", path, e.Tag(), e.Value())
	}
}

// fieldPath converts a validator namespace like "Config.Query.DefaultLimit"
// into the YAML form "query.default_limit".
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:] // drop the root struct name
	}
	for i, p := range parts {
		parts[i] = snakeCase(p)
	}
	return strings.Join(parts, ".")
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
