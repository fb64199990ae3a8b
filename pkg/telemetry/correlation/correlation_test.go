package correlation

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCorrelationIDMintsULID(t *testing.T) {
	ctx, cid := EnsureCorrelationID(context.Background())
	_, err := ulid.Parse(cid)
	require.NoError(t, err)
	assert.Equal(t, cid, ExtractCorrelationID(ctx))

	_, again := EnsureCorrelationID(ctx)
	assert.Equal(t, cid, again)
}

func TestFromRequestAndInject(t *testing.T) {
	in := httptest.NewRequest("POST", "/events", nil)
	in.Header.Set(Header, "abc")
	ctx, cid := FromRequest(context.Background(), in)
	assert.Equal(t, "abc", cid)

	out := httptest.NewRequest("POST", "/api/ai-insights/ingest", nil)
	InjectIntoRequest(ctx, out)
	assert.Equal(t, "abc", out.Header.Get(Header))
}
