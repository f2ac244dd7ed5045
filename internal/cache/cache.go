package cache

import "context"

// ReceiptCache remembers provider message ids of inbound webhooks so that
// gateway retries do not produce duplicate log rows.
type ReceiptCache interface {
	// SeenInbound records the provider message id and reports whether it
	// had already been seen.
	SeenInbound(ctx context.Context, providerMessageID string) (bool, error)
}

// NopReceiptCache is used when Redis is not configured; every webhook is
// treated as first delivery.
type NopReceiptCache struct{}

func (NopReceiptCache) SeenInbound(ctx context.Context, providerMessageID string) (bool, error) {
	return false, nil
}
