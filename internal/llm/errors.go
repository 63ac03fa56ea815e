package llm

import "github.com/danve93/Amber-sub001/internal/types"

// LLM error codes
const (
	ErrCodeLLMInvalidConfig   types.ErrorCode = "LLM_INVALID_CONFIG"
	ErrCodeLLMAuthFailed      types.ErrorCode = "LLM_AUTH_FAILED"
	ErrCodeLLMRequestFailed   types.ErrorCode = "LLM_REQUEST_FAILED"
	ErrCodeLLMResponseInvalid types.ErrorCode = "LLM_RESPONSE_INVALID"
)
