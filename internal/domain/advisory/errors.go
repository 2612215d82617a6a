package advisory

import "errors"

// ErrRiskNotFound indicates the risk is missing, soft-deleted, or owned by
// another tenant. Surfaced as HTTP 404.
var ErrRiskNotFound = errors.New("risk not found")

// ErrAdvisoryNotGenerated indicates create-drafts was called before analyze
// for this (tenant, risk). Surfaced as HTTP 400; it is an explicit
// precondition, never inferred by running analyze implicitly.
var ErrAdvisoryNotGenerated = errors.New("advisory not generated for this risk")

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")
