package delivery

import (
	"errors"
	"fmt"
)

var (
	ErrLookupFailed   = errors.New("customer_lookup_failed")
	ErrDeliveryFailed = errors.New("insight_delivery_failed")
)

// ResponseError reports a non-2xx answer from the ingestion service.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ingestion service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("ingestion service returned status %d: %s", e.StatusCode, e.Message)
}
