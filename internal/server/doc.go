// Package server exposes the Amber core over HTTP.
//
// The API is a thin JSON layer over the internal collaborators: the
// structured query router, the document store, the stats collector, and the
// recovery scanner. Handlers own request decoding, validation, and status
// mapping; domain behavior stays in the packages behind the Deps interfaces.
//
// Routes:
//
//	POST /api/v1/query            route a query (structured answer or fallthrough)
//	POST /api/v1/documents        register a document entering ingestion
//	GET  /api/v1/documents/{id}   fetch one document record
//	GET  /api/v1/admin/stats      operator stats snapshot
//	POST /api/v1/admin/recover    on-demand recovery pass
//	GET  /healthz                 component health
//
// Errors are returned as {"error": {"code", "message"}} envelopes using the
// shared error codes.
package server
