package tracing

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsCustomerData(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("shop", "demo.myshopify.com"),
		attribute.String("customer.email", "a@b.c"),
		attribute.String("insight.text", "..."),
		attribute.String("", "x"),
	)
	require.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("shop"), attrs[0].Key)
}

func TestSafeErrorTruncates(t *testing.T) {
	assert.Nil(t, SafeError(nil))
	long := errors.New(strings.Repeat("x", 1000))
	assert.Len(t, SafeError(long).Error(), maxErrorLength)
}

func TestWrapHTTPClientKeepsSettings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	base := srv.Client()
	wrapped := WrapHTTPClient(base)
	assert.NotSame(t, base, wrapped)
	assert.Equal(t, base.Timeout, wrapped.Timeout)

	resp, err := wrapped.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
