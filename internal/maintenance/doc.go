// Package maintenance provides operator-facing inspection of the stores.
//
// The StatsCollector joins the relational document counts with the graph's
// entity and relationship counts into one DatabaseStats snapshot. The two
// stores fail independently: the relational store is required, the graph
// store degrades to -1 counts when unreachable.
package maintenance
