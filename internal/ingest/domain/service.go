package domain

import "context"

// Service is the ingestion boundary. Every method takes the raw request
// body and the signature header sent with it.
type Service interface {
	IngestInsight(ctx context.Context, body []byte, sig string) (IngestResult, error)
	LookupCustomer(ctx context.Context, body []byte, sig string) (*CustomerSnapshot, error)
	UpsertCustomer(ctx context.Context, body []byte, sig string) (*CustomerSnapshot, error)
}
