package structured

import "strings"

// QueryType identifies which fixed graph query answers a structured
// natural-language question. QueryTypeNotStructured is the terminal type for
// queries that need the general retrieval pipeline.
type QueryType string

const (
	QueryTypeListDocuments     QueryType = "list_documents"
	QueryTypeCountDocuments    QueryType = "count_documents"
	QueryTypeListEntities      QueryType = "list_entities"
	QueryTypeCountEntities     QueryType = "count_entities"
	QueryTypeListRelationships QueryType = "list_relationships"
	QueryTypeNotStructured     QueryType = "not_structured"
)

// String returns the string representation of the query type.
func (t QueryType) String() string {
	return string(t)
}

// IsStructured reports whether the type maps to a fixed graph query.
func (t QueryType) IsStructured() bool {
	switch t {
	case QueryTypeListDocuments, QueryTypeCountDocuments,
		QueryTypeListEntities, QueryTypeCountEntities,
		QueryTypeListRelationships:
		return true
	}
	return false
}

// IsCount reports whether the type's query returns a single count column
// rather than a row listing.
func (t QueryType) IsCount() bool {
	return strings.HasPrefix(string(t), "count_")
}

// StructuredQueryTypes returns the recognized structured types in a stable
// order. The fallback classifier's token vocabulary is derived from this set.
func StructuredQueryTypes() []QueryType {
	return []QueryType{
		QueryTypeListDocuments,
		QueryTypeCountDocuments,
		QueryTypeListEntities,
		QueryTypeCountEntities,
		QueryTypeListRelationships,
	}
}

// ParseQueryType maps a token to a recognized structured type. Unknown or
// non-structured tokens yield (QueryTypeNotStructured, false).
func ParseQueryType(token string) (QueryType, bool) {
	t := QueryType(strings.ToLower(strings.TrimSpace(token)))
	if t.IsStructured() {
		return t, true
	}
	return QueryTypeNotStructured, false
}

// Filter keys extracted by the detector and declared by templates.
const (
	FilterFilename   = "filename"
	FilterEntityType = "entity_type"
)

// Row-limit bounds. The detector clamps the limit it extracts and the
// executor clamps again at the binding site, so the bound parameter stays in
// [1, MaxLimit] for any caller-constructed intent.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Intent is the outcome of intent detection: the query type plus any filters
// and the row limit extracted from the query text.
//
// Filters hold raw user tokens; they reach the graph store only as bound
// query parameters, never spliced into query text.
type Intent struct {
	Type    QueryType
	Filters map[string]string
	Limit   int
}

// NotStructuredIntent returns the terminal intent for queries the structured
// path cannot answer.
func NotStructuredIntent() Intent {
	return Intent{Type: QueryTypeNotStructured}
}

// Filter returns the named filter value, or "" when absent.
func (i Intent) Filter(key string) string {
	if i.Filters == nil {
		return ""
	}
	return i.Filters[key]
}
