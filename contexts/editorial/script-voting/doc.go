// Package scriptvoting implements script voting inside the editorial context.
//
// The module owns the voting calendar (open, close, replenish), the script
// ballot box with toggle/swap semantics, winner selection at period close,
// and the outbox that hands the selected script to series production. It
// keeps business rules in application/domain layers and isolates
// infrastructure concerns behind ports and adapters.
package scriptvoting
