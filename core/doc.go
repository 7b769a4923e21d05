// Package core defines the domain model shared across the debate engine:
// known products and their attribute sets, feature vectors, candidates with
// feasibility reports, rounds, sessions and the error taxonomy.
//
// Types in this package carry no behavior beyond construction, defensive
// copying and invariant enforcement. Sessions are safe for concurrent
// access; all other types are value-like and never mutated after the round
// that produced them closes.
package core
