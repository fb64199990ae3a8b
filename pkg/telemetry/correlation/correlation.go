// Package correlation carries a ULID correlation id across one pipeline run
// and onto outbound requests.
package correlation

import (
	"context"
	"net/http"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Header carries the correlation id between the processor and the ingestion service.
const Header = "X-Correlation-Id"

type correlationKey struct{}

// ExtractCorrelationID fetches a correlation ID from the context if present.
func ExtractCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if val, ok := ctx.Value(correlationKey{}).(string); ok {
		return val
	}
	return ""
}

// ContextWithCorrelationID sets the correlation ID onto the context.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// EnsureCorrelationID guarantees a correlation ID on the context, generating one when missing.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	cid := ExtractCorrelationID(ctx)
	if cid == "" {
		cid = ulid.Make().String()
	}
	return ContextWithCorrelationID(ctx, cid), cid
}

// FromRequest adopts the caller's correlation id, or mints a new one.
func FromRequest(ctx context.Context, r *http.Request) (context.Context, string) {
	if r != nil {
		if cid := strings.TrimSpace(r.Header.Get(Header)); cid != "" {
			return ContextWithCorrelationID(ctx, cid), cid
		}
	}
	return EnsureCorrelationID(ctx)
}

// InjectIntoRequest copies the context's correlation id onto an outbound request.
func InjectIntoRequest(ctx context.Context, r *http.Request) {
	if r == nil {
		return
	}
	if cid := ExtractCorrelationID(ctx); cid != "" {
		r.Header.Set(Header, cid)
	}
}
