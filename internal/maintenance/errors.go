package maintenance

import "github.com/danve93/Amber-sub001/internal/types"

// Maintenance error codes
const (
	// ErrCodeStatsUnavailable means the relational side of the stats
	// snapshot could not be assembled. Graph-side failures never produce
	// this code; they degrade the affected counts to -1 instead.
	ErrCodeStatsUnavailable types.ErrorCode = "STATS_UNAVAILABLE"
)
