// Package seriesproduction implements series production inside the
// production context.
//
// The module owns the expansion of a selected script into a five-episode
// production run, the retrying job queue that renders heavy media, clip
// voting over pilot variants, series state reconciliation, and idempotent
// episode finalization. It keeps business rules in application/domain layers
// and isolates infrastructure concerns behind ports and adapters.
package seriesproduction
