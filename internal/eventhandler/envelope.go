package eventhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

const (
	// PartnerNamespace must appear in the envelope source.
	PartnerNamespace = "aws.partner/shopify.com"

	MetadataShopDomain = "X-Shopify-Shop-Domain"
	MetadataTopic      = "X-Shopify-Topic"
)

var (
	ErrUnrecognizedSource = errors.New("unrecognized_source")
	ErrInvalidEnvelope    = errors.New("invalid_envelope")
	ErrMissingOrderID     = errors.New("missing_order_id")
	ErrMissingShopDomain  = errors.New("missing_shop_domain")
)

// Envelope is the event-bus wrapper around a partner webhook.
type Envelope struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	DetailType string `json:"detail-type"`
	Detail     Detail `json:"detail"`
}

type Detail struct {
	Metadata map[string]string `json:"metadata"`
	Payload  json.RawMessage   `json:"payload"`
}

func (e Envelope) recognized() bool {
	return strings.Contains(e.Source, PartnerNamespace)
}

func (e Envelope) metadata(key string) string {
	if e.Detail.Metadata == nil {
		return ""
	}
	if value, ok := e.Detail.Metadata[key]; ok {
		return strings.TrimSpace(value)
	}
	// Header names arrive in whatever case the partner used.
	for k, v := range e.Detail.Metadata {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Outcome is the handler's final answer for one envelope.
type Outcome struct {
	Status       int    `json:"-"`
	Ignored      bool   `json:"ignored,omitempty"`
	Message      string `json:"message,omitempty"`
	OrderID      string `json:"orderId,omitempty"`
	CustomerType string `json:"customerType,omitempty"`
	InsightID    string `json:"insightId,omitempty"`
	Error        string `json:"error,omitempty"`
}

func ignored() Outcome {
	return Outcome{Status: http.StatusOK, Ignored: true, Message: "event source not recognized"}
}

func rejected(err error) Outcome {
	return Outcome{Status: http.StatusBadRequest, Error: err.Error()}
}

func failed(orderID string, err error) Outcome {
	return Outcome{Status: http.StatusInternalServerError, OrderID: orderID, Error: err.Error()}
}
