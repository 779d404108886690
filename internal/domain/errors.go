package domain

import "errors"

var (
	// ErrUserNotFound signals a missing user record.
	ErrUserNotFound = errors.New("user not found")
	// ErrSettingsNotFound signals that a user has no notification settings yet.
	ErrSettingsNotFound = errors.New("notification settings not found")
	// ErrDimensionMismatch signals a query/document vector dimension mismatch.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrZeroVector signals a vector with zero magnitude (cosine similarity undefined).
	ErrZeroVector = errors.New("zero-magnitude vector")
	// ErrNonFiniteScore signals a NaN or infinite similarity (corrupt vector or store value).
	ErrNonFiniteScore = errors.New("non-finite similarity score")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals an LLM completion provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
	// ErrEmptyCompletion signals an LLM response without usable text.
	ErrEmptyCompletion = errors.New("empty completion")
	// ErrMissingAPIKey signals a missing provider API key (configuration error).
	ErrMissingAPIKey = errors.New("api key is not configured")
	// ErrBookMissing signals that the gated book file is absent on disk.
	ErrBookMissing = errors.New("book file not found")
	// ErrInvalidSchedule signals malformed notification time or frequency.
	ErrInvalidSchedule = errors.New("invalid notification schedule")
	// ErrInvalidTimezone signals a timezone outside the UTC, UTC+N, UTC-N forms.
	ErrInvalidTimezone = errors.New("invalid timezone")
	// ErrUnsupportedFile signals a content file the summarizer cannot read.
	ErrUnsupportedFile = errors.New("unsupported file type")
)
