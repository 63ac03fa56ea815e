package structured

import (
	"fmt"
	"regexp"

	"github.com/danve93/Amber-sub001/internal/types"
)

// Template is a parameterized Cypher statement for one structured query
// type. Query text is fixed at startup; user input only ever reaches the
// store as bound parameters, never as spliced query text.
type Template struct {
	// QueryType is the intent this template answers.
	QueryType QueryType

	// Cypher is the statement with $-placeholders for every variable part.
	Cypher string

	// Filters lists the optional filter parameters the statement binds.
	// Declared filters are always bound, with the empty string standing in
	// for "not supplied" so the statement can disable the clause itself.
	Filters []string

	// UsesLimit reports whether the statement binds $limit.
	UsesLimit bool
}

// TemplateSet maps query types to their templates.
type TemplateSet map[QueryType]Template

// DefaultTemplates returns the built-in template set. Every statement is
// tenant-scoped and read-only.
func DefaultTemplates() TemplateSet {
	return TemplateSet{
		QueryTypeListDocuments: {
			QueryType: QueryTypeListDocuments,
			Cypher: `MATCH (d:Document {tenant_id: $tenant_id})
WHERE $filename = '' OR toLower(d.filename) CONTAINS toLower($filename)
RETURN d.id AS id, d.filename AS filename, d.status AS status, toString(d.created_at) AS created_at
ORDER BY d.created_at DESC
LIMIT $limit`,
			Filters:   []string{FilterFilename},
			UsesLimit: true,
		},
		QueryTypeCountDocuments: {
			QueryType: QueryTypeCountDocuments,
			Cypher: `MATCH (d:Document {tenant_id: $tenant_id})
RETURN count(d) AS count`,
		},
		QueryTypeListEntities: {
			QueryType: QueryTypeListEntities,
			Cypher: `MATCH (e:Entity {tenant_id: $tenant_id})
WHERE $entity_type = '' OR toLower(e.type) = toLower($entity_type)
RETURN e.id AS id, e.name AS name, e.type AS type, e.description AS description
ORDER BY e.name
LIMIT $limit`,
			Filters:   []string{FilterEntityType},
			UsesLimit: true,
		},
		QueryTypeCountEntities: {
			QueryType: QueryTypeCountEntities,
			Cypher: `MATCH (e:Entity {tenant_id: $tenant_id})
WHERE $entity_type = '' OR toLower(e.type) = toLower($entity_type)
RETURN count(e) AS count`,
			Filters: []string{FilterEntityType},
		},
		QueryTypeListRelationships: {
			QueryType: QueryTypeListRelationships,
			Cypher: `MATCH (a:Entity {tenant_id: $tenant_id})-[r]->(b:Entity {tenant_id: $tenant_id})
RETURN a.name AS source, type(r) AS type, b.name AS target, r.description AS description
ORDER BY a.name
LIMIT $limit`,
			UsesLimit: true,
		},
	}
}

// placeholderPattern matches Cypher $-parameters.
var placeholderPattern = regexp.MustCompile(`\$([a-zA-Z_][a-zA-Z0-9_]*)`)

// Validate checks the set is complete and self-consistent: every structured
// query type has a template, every placeholder a statement references is
// either tenant_id, limit, or a declared filter, and every statement is
// tenant-scoped. Run it at startup so a malformed set fails fast instead of
// at query time.
func (s TemplateSet) Validate() error {
	for _, qtype := range StructuredQueryTypes() {
		tmpl, ok := s[qtype]
		if !ok {
			return types.NewError(ErrCodeTemplateMissing,
				fmt.Sprintf("no template registered for query type %q", qtype))
		}
		if tmpl.QueryType != qtype {
			return types.NewError(ErrCodeTemplateMissing,
				fmt.Sprintf("template registered under %q declares query type %q", qtype, tmpl.QueryType))
		}
		if err := tmpl.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (t Template) validate() error {
	allowed := map[string]bool{"tenant_id": true}
	if t.UsesLimit {
		allowed["limit"] = true
	}
	for _, f := range t.Filters {
		allowed[f] = true
	}

	sawTenant := false
	for _, match := range placeholderPattern.FindAllStringSubmatch(t.Cypher, -1) {
		name := match[1]
		if !allowed[name] {
			return types.NewError(ErrCodeTemplateMissing,
				fmt.Sprintf("template %q references undeclared parameter $%s", t.QueryType, name))
		}
		if name == "tenant_id" {
			sawTenant = true
		}
	}
	if !sawTenant {
		return types.NewError(ErrCodeTemplateMissing,
			fmt.Sprintf("template %q is not tenant-scoped", t.QueryType))
	}
	return nil
}
