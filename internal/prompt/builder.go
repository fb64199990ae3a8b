// Package prompt renders the instruction sent to the completion provider for
// one order. Rendering is deterministic and performs no I/O.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	classificationdomain "github.com/smallbiznis/orderpulse/internal/classification/domain"
	"github.com/smallbiznis/orderpulse/internal/config"
	orderdomain "github.com/smallbiznis/orderpulse/internal/order/domain"
	orderservice "github.com/smallbiznis/orderpulse/internal/order/service"
)

// CustomerPlaceholder stands in for the customer's name when names are not
// shared with the provider.
const CustomerPlaceholder = "the customer"

const systemPrompt = `You are an e-commerce retention analyst writing for a small merchant. ` +
	`Respond with a single JSON object and nothing else. The object must have exactly three string fields: ` +
	`"insight" (two or three sentences about this order and customer), ` +
	`"followUpSubject" (a short email subject line) and ` +
	`"followUpBody" (a friendly follow-up email of at most 120 words, signed by the store team).`

var guidance = map[classificationdomain.CustomerType]string{
	classificationdomain.CustomerTypeFirstTime: `This is a first-time customer. Focus the insight on making a strong first impression. ` +
		`The follow-up should welcome them, thank them for choosing the store, and invite a second purchase without pressure.`,
	classificationdomain.CustomerTypeRepeat: `This is a returning customer. Point out what their repeat purchase says about loyalty. ` +
		`The follow-up should thank them for coming back and suggest complementary products.`,
	classificationdomain.CustomerTypeVIP: `This is a VIP customer with significant order history or spend. Highlight their value to the business. ` +
		`The follow-up should express personal appreciation and mention exclusive perks or early access.`,
}

const userTemplate = `Write a merchant insight and a follow-up email for this order.

Order {{.OrderName}}
- Total: {{.Total}} {{.Currency}}
- Items ({{.ItemCount}}):
{{- range .Items}}
  - {{.Quantity}} x {{.Title}} @ {{.Price}} {{$.Currency}}
{{- end}}
- Discount used: {{if .DiscountUsed}}yes ({{.Discounts}}){{else}}no{{end}}

Customer
- Name: {{.CustomerName}}
- Segment: {{.CustomerType}}
- Orders to date: {{.OrderCount}}{{if .Assumed}} (estimated){{end}}
- Lifetime spend: {{.LifetimeSpend}}{{if .Assumed}} (unknown){{end}}
{{- if .HasDays}}
- Days since first order: {{.Days}}
{{- end}}

Guidance
{{.Guidance}}`

var userTmpl = template.Must(template.New("user").Parse(userTemplate))

// Prompt is the rendered instruction pair.
type Prompt struct {
	System string
	User   string
}

// Input carries everything the prompt needs.
type Input struct {
	Order          orderdomain.NormalizedOrder
	Classification classificationdomain.Result
	CustomerName   string
}

type Options struct {
	IncludeCustomerName bool
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{IncludeCustomerName: cfg.IncludeCustomerName}
}

type Builder struct {
	opts Options
}

func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts}
}

type itemView struct {
	Title    string
	Quantity int
	Price    string
}

type view struct {
	OrderName     string
	Total         string
	Currency      string
	ItemCount     int
	Items         []itemView
	DiscountUsed  bool
	Discounts     string
	CustomerName  string
	CustomerType  string
	OrderCount    int
	LifetimeSpend string
	Assumed       bool
	HasDays       bool
	Days          int
	Guidance      string
}

// Build renders the prompt for in.
func (b *Builder) Build(in Input) (Prompt, error) {
	text, ok := guidance[in.Classification.Type]
	if !ok {
		return Prompt{}, fmt.Errorf("no guidance for customer type %q", in.Classification.Type)
	}

	name := CustomerPlaceholder
	if b.opts.IncludeCustomerName {
		if n := strings.TrimSpace(in.CustomerName); n != "" {
			name = n
		}
	}

	orderName := in.Order.Name
	if orderName == "" {
		orderName = in.Order.ID
	}

	places := orderservice.Precision(in.Order.Currency)
	items := make([]itemView, 0, len(in.Order.Items))
	for _, item := range in.Order.Items {
		items = append(items, itemView{
			Title:    item.Title,
			Quantity: item.Quantity,
			Price:    item.Price.StringFixed(places),
		})
	}

	v := view{
		OrderName:     orderName,
		Total:         in.Order.Total.StringFixed(places),
		Currency:      in.Order.Currency,
		ItemCount:     in.Order.ItemCount,
		Items:         items,
		DiscountUsed:  in.Order.DiscountUsed,
		Discounts:     strings.Join(in.Order.Discounts, ", "),
		CustomerName:  name,
		CustomerType:  string(in.Classification.Type),
		OrderCount:    in.Classification.OrderCount,
		LifetimeSpend: in.Classification.LifetimeSpend.StringFixed(places),
		Assumed:       in.Classification.Assumed,
		Guidance:      text,
	}
	if in.Classification.DaysSinceFirstOrder != nil {
		v.HasDays = true
		v.Days = *in.Classification.DaysSinceFirstOrder
	}

	var buf bytes.Buffer
	if err := userTmpl.Execute(&buf, v); err != nil {
		return Prompt{}, fmt.Errorf("render prompt: %w", err)
	}

	return Prompt{System: systemPrompt, User: buf.String()}, nil
}
