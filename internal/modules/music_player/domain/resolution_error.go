package domain

// ResolutionKind classifies why a query could not be resolved into a Track.
type ResolutionKind int

const (
	// ResolutionNotFound means no matching media exists.
	ResolutionNotFound ResolutionKind = iota
	// ResolutionAuthRequired means the backend hit an authentication or
	// consent wall (expired cookies, sign-in prompts).
	ResolutionAuthRequired
	// ResolutionTransient means a network or extraction hiccup that is safe
	// to retry once with a fallback configuration.
	ResolutionTransient
	// ResolutionUnknown covers everything else.
	ResolutionUnknown
)

// String returns a human-readable name for the kind.
func (k ResolutionKind) String() string {
	switch k {
	case ResolutionNotFound:
		return "not_found"
	case ResolutionAuthRequired:
		return "auth_required"
	case ResolutionTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// ResolutionError is a typed resolution failure.
type ResolutionError struct {
	Kind   ResolutionKind
	Detail string
}

// NewResolutionError creates a ResolutionError.
func NewResolutionError(kind ResolutionKind, detail string) *ResolutionError {
	return &ResolutionError{
		Kind:   kind,
		Detail: detail,
	}
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	if e.Detail == "" {
		return "resolution failed: " + e.Kind.String()
	}
	return "resolution failed (" + e.Kind.String() + "): " + e.Detail
}

// Retryable returns true if one fallback resolution attempt is warranted.
func (e *ResolutionError) Retryable() bool {
	return e.Kind == ResolutionAuthRequired || e.Kind == ResolutionTransient
}
