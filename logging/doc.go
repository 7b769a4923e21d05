// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug
// any structured logger. It also offers a richer DebateLogger with
// contextual helpers (session, round, component) and domain specific
// helpers for provider calls and round outcomes.
package logging
