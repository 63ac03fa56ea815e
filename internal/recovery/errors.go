package recovery

import "github.com/danve93/Amber-sub001/internal/types"

// Recovery scanner error codes
const (
	// ErrCodeEnumerationFailure means the candidate listing itself failed.
	// A run that cannot enumerate has nothing to work on and aborts.
	ErrCodeEnumerationFailure types.ErrorCode = "RECOVERY_ENUMERATION_FAILURE"

	// ErrCodeRecoveryItemFailure marks a per-document failure (evidence
	// lookup or transition write). Item failures are logged and the run
	// continues; they never abort the scan.
	ErrCodeRecoveryItemFailure types.ErrorCode = "RECOVERY_ITEM_FAILURE"
)
