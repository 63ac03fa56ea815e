package structured

import "github.com/danve93/Amber-sub001/internal/types"

// Structured query error codes
const (
	// ErrCodeInvalidIntent marks a call into the executor with a
	// non-structured or malformed intent. A router bug, not a user error.
	ErrCodeInvalidIntent types.ErrorCode = "QUERY_INVALID_INTENT"

	// ErrCodeTemplateMissing marks a recognized query type with no template,
	// i.e. template/type-set drift. Startup validation catches this in
	// development; at request time it is logged and treated as absent.
	ErrCodeTemplateMissing types.ErrorCode = "QUERY_TEMPLATE_MISSING"

	// ErrCodeStoreUnavailable marks a graph query that failed or returned an
	// unusable result. Treated as absent: the router falls through to the
	// general pipeline.
	ErrCodeStoreUnavailable types.ErrorCode = "QUERY_STORE_UNAVAILABLE"

	// ErrCodeClassificationTimeout marks a fallback classification that
	// exceeded its bound. Only ever logged; the detector resolves the query
	// to not_structured.
	ErrCodeClassificationTimeout types.ErrorCode = "QUERY_CLASSIFICATION_TIMEOUT"
)
