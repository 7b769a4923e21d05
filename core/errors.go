package core

import "fmt"

// VectorizationError reports malformed product or candidate attributes.
// Fatal when raised during corpus load; per-candidate otherwise.
type VectorizationError struct {
	Subject string // product name or candidate description
	Reason  string
}

func (e *VectorizationError) Error() string {
	return fmt.Sprintf("vectorization failed for %q: %s", e.Subject, e.Reason)
}

// EmptyCorpusError reports that the target category has no reference
// products. Fatal to session start.
type EmptyCorpusError struct {
	Category string
}

func (e *EmptyCorpusError) Error() string {
	if e.Category == "" {
		return "empty corpus: no reference products"
	}
	return fmt.Sprintf("empty corpus: no reference products in category %q", e.Category)
}

// ProviderError wraps a transient reasoning-provider failure after the
// retry budget is exhausted.
type ProviderError struct {
	Role     string
	Attempts int
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider call failed for role %s after %d attempts: %v", e.Role, e.Attempts, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ValidationError reports a structured response that failed schema
// validation. Triggers a single re-prompt before the candidate is dropped.
type ValidationError struct {
	Role   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s response: %s", e.Role, e.Reason)
}

// AllCandidatesFailedError reports that every candidate in a round failed,
// which is fatal to the session.
type AllCandidatesFailedError struct {
	Round int
}

func (e *AllCandidatesFailedError) Error() string {
	return fmt.Sprintf("all candidates failed in round %d", e.Round)
}
