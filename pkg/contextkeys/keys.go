package contextkeys

type contextKey string

const (
	// PrincipalKey - entities.Principal текущего запроса.
	PrincipalKey contextKey = "Principal"
	RequestIDKey contextKey = "RequestID"
)
