package domain

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
	orderdomain "github.com/smallbiznis/orderpulse/internal/order/domain"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBaseURL = "https://orderpulse.local/schemas/"

// ValidationResult is either Valid or Invalid.
type ValidationResult interface {
	validationResult()
}

// Valid carries the typed payload of an accepted body.
type Valid[T any] struct {
	Payload T
}

func (Valid[T]) validationResult() {}

// Invalid names the first offending field.
type Invalid struct {
	Field  string
	Reason string
}

func (Invalid) validationResult() {}

func (i Invalid) Error() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Reason)
}

// InsightInput is a validated insight delivery.
type InsightInput struct {
	Shop            string              `json:"shop"`
	OrderID         orderdomain.ID      `json:"orderId"`
	OrderName       string              `json:"orderName"`
	InsightText     string              `json:"insightText"`
	FollowUpSubject *string             `json:"followUpSubject"`
	FollowUpBody    *string             `json:"followUpBody"`
	CustomerType    *string             `json:"customerType"`
	OrderValue      decimal.NullDecimal `json:"orderValue"`
	Status          Status              `json:"status"`
	ErrorMessage    *string             `json:"errorMessage"`
}

// LookupInput is a validated customer-data lookup.
type LookupInput struct {
	Shop       string         `json:"shop"`
	CustomerID orderdomain.ID `json:"customerId"`
}

// SnapshotInput is a validated customer snapshot upsert.
type SnapshotInput struct {
	Shop           string          `json:"shop"`
	CustomerID     orderdomain.ID  `json:"customerId"`
	NumberOfOrders int             `json:"numberOfOrders"`
	AmountSpent    decimal.Decimal `json:"amountSpent"`
	Currency       string          `json:"currency"`
	CreatedAt      time.Time       `json:"createdAt"`
	FirstName      *string         `json:"firstName"`
	LastName       *string         `json:"lastName"`
	Email          *string         `json:"email"`
}

// Validator checks request bodies against the embedded JSON schemas.
type Validator struct {
	insight  *jsonschema.Schema
	lookup   *jsonschema.Schema
	snapshot *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.AssertFormat = true

	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		raw, err := schemaFS.ReadFile("schemas/" + entry.Name())
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(schemaBaseURL+entry.Name(), bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("schema %s load failed: %w", entry.Name(), err)
		}
	}

	v := &Validator{}
	for name, target := range map[string]**jsonschema.Schema{
		"insight.schema.json":           &v.insight,
		"customer_lookup.schema.json":   &v.lookup,
		"customer_snapshot.schema.json": &v.snapshot,
	} {
		compiled, err := c.Compile(schemaBaseURL + name)
		if err != nil {
			return nil, fmt.Errorf("schema %s compile failed: %w", name, err)
		}
		*target = compiled
	}
	return v, nil
}

// ValidateInsight applies the insight schema. errorMessage is dropped
// unless status is error, and a missing status means completed.
func (v *Validator) ValidateInsight(body []byte) ValidationResult {
	res := validate[InsightInput](v.insight, body)
	valid, ok := res.(Valid[InsightInput])
	if !ok {
		return res
	}
	in := valid.Payload
	if in.Status == "" {
		in.Status = StatusCompleted
	}
	if in.Status != StatusError {
		in.ErrorMessage = nil
	}
	return Valid[InsightInput]{Payload: in}
}

func (v *Validator) ValidateLookup(body []byte) ValidationResult {
	return validate[LookupInput](v.lookup, body)
}

func (v *Validator) ValidateSnapshot(body []byte) ValidationResult {
	res := validate[SnapshotInput](v.snapshot, body)
	valid, ok := res.(Valid[SnapshotInput])
	if !ok {
		return res
	}
	if valid.Payload.Currency == "" {
		valid.Payload.Currency = "USD"
	}
	return valid
}

func validate[T any](schema *jsonschema.Schema, body []byte) ValidationResult {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Invalid{Field: "body", Reason: "invalid JSON"}
	}

	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return invalidFrom(ve)
		}
		return Invalid{Field: "body", Reason: err.Error()}
	}

	var payload T
	if err := json.Unmarshal(body, &payload); err != nil {
		return Invalid{Field: "body", Reason: err.Error()}
	}
	return Valid[T]{Payload: payload}
}

var missingProperty = regexp.MustCompile(`'([^']+)'`)

func invalidFrom(ve *jsonschema.ValidationError) Invalid {
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	field := strings.ReplaceAll(strings.TrimPrefix(leaf.InstanceLocation, "/"), "/", ".")
	if field == "" {
		if m := missingProperty.FindStringSubmatch(leaf.Message); m != nil {
			field = m[1]
		} else {
			field = "body"
		}
	}
	return Invalid{Field: field, Reason: leaf.Message}
}

// NormalizeCustomerID strips the admin API prefix from a customer id.
func NormalizeCustomerID(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), "gid://shopify/Customer/")
}
