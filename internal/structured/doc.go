// Package structured answers metadata questions directly from the graph
// store, bypassing the retrieval pipeline for queries that do not need it.
//
// # Routing
//
// A query passes through two stages. Intent detection first runs an ordered
// list of anchored patterns over the normalized query text; the first match
// wins, so classification is deterministic and costs no I/O. When no pattern
// matches but the query is short, interrogative, or mentions graph
// vocabulary, an optional LLM classifier gets one rate-limited, time-bounded
// attempt; its answer is accepted only above a confidence floor and every
// failure mode resolves to not_structured. Detection therefore never blocks
// on model availability and never returns an error.
//
// Detected intents execute against fixed Cypher templates. Tenant scope,
// row limits, and filters are bound exclusively as query parameters; no user
// input is ever spliced into statement text.
//
// # Fallthrough
//
// Router.Route reports a bare boolean to its caller. A false return means
// "use the general pipeline" whether the cause was an unstructured query, a
// missing template, or an unreachable store; operators see the distinction
// in logs and metrics, end users see a normal answer. An empty row set is
// NOT a fallthrough: a tenant with zero documents gets a structured answer
// with an empty data array.
//
// # Usage
//
//	detector := structured.NewDetector(structured.DefaultDetectorConfig(), classifier, logger)
//	executor, err := structured.NewExecutor(graphClient, structured.DefaultTemplates(), logger)
//	if err != nil {
//		return err
//	}
//	router := structured.NewRouter(detector, executor, logger, metrics)
//
//	if answer, ok := router.Route(ctx, "list documents limit 10", tenantID); ok {
//		return respond(answer)
//	}
//	return generalPipeline(ctx, query)
package structured
