package context

import "context"

type requestIDKey struct{}
type shopKey struct{}
type orderIDKey struct{}

// WithRequestID stores the inbound request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}

// WithShop stores the shop domain the current work belongs to.
func WithShop(ctx context.Context, shop string) context.Context {
	if shop == "" {
		return ctx
	}
	return context.WithValue(ctx, shopKey{}, shop)
}

func ShopFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(shopKey{}).(string)
	return value
}

// WithOrderID stores the order identifier being processed.
func WithOrderID(ctx context.Context, orderID string) context.Context {
	if orderID == "" {
		return ctx
	}
	return context.WithValue(ctx, orderIDKey{}, orderID)
}

func OrderIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(orderIDKey{}).(string)
	return value
}
