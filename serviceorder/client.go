package serviceorder

import (
	"context"

	"github.com/fieldserve/adminsdk/api"
)

// parentKind tags upload-slot requests made on behalf of service orders.
const parentKind = "service_order"

// Uploader pushes pending attachment files to the server before the
// parent record is sent. Implemented by attachment.Uploader; entries are
// mutated in place with the server-assigned identifier and name.
type Uploader interface {
	UploadPending(ctx context.Context, parentKind string, attachments []map[string]any) error
}

// Client is the service-order resource client. Reads come back
// normalized into view shape; writes are formatted, sanitized, have
// their attachments uploaded, and the server's response is normalized
// before it reaches the caller — callers never see raw wire shape.
type Client struct {
	res     *api.Resource
	uploads Uploader
}

// NewClient creates a service-order client. uploads may be nil when the
// embedder never sends attachments.
func NewClient(exec *api.Executor, uploads Uploader) *Client {
	return &Client{
		res:     api.NewServiceOrders(exec),
		uploads: uploads,
	}
}

// List fetches one page of service orders, each normalized.
func (c *Client) List(ctx context.Context, params api.ListParams) (*api.Page, error) {
	page, err := c.res.List(ctx, params)
	if err != nil {
		return nil, err
	}
	for i, item := range page.Items {
		page.Items[i] = NormalizeResponse(item)
	}
	return page, nil
}

// Get fetches one service order; nil (with nil error) means not found.
func (c *Client) Get(ctx context.Context, id string) (api.Record, error) {
	rec, err := c.res.Get(ctx, id)
	if err != nil || rec == nil {
		return nil, err
	}
	return NormalizeResponse(rec), nil
}

// Create saves a new service order.
func (c *Client) Create(ctx context.Context, rec api.Record) (api.Record, error) {
	payload, err := c.prepare(ctx, rec, false)
	if err != nil {
		return nil, err
	}
	saved, err := c.res.Create(ctx, payload)
	if err != nil {
		return nil, err
	}
	return NormalizeResponse(saved), nil
}

// Update saves changes to an existing service order. Attachments that
// already carry a created_at are filtered out of the payload; only new
// ones are uploaded and sent.
func (c *Client) Update(ctx context.Context, id string, rec api.Record) (api.Record, error) {
	payload, err := c.prepare(ctx, rec, true)
	if err != nil {
		return nil, err
	}
	saved, err := c.res.Update(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	return NormalizeResponse(saved), nil
}

// Delete removes a service order.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.res.Delete(ctx, id)
}

// prepare runs the outbound half of the pipeline: field formatting,
// embedded-object stripping, attachment presence and filtering, then
// attachment upload. Every upload completes before the payload is
// returned for sending; an upload failure aborts the save.
func (c *Client) prepare(ctx context.Context, rec api.Record, update bool) (api.Record, error) {
	payload := ApplyFieldFormatting(rec)
	payload = stripEmbedded(payload)
	ensureAttachments(payload)

	if update {
		payload["attachments"] = filterNewAttachments(payload["attachments"].([]any))
	}

	if c.uploads != nil {
		pending := attachmentMaps(payload["attachments"])
		if len(pending) > 0 {
			if err := c.uploads.UploadPending(ctx, parentKind, pending); err != nil {
				return nil, err
			}
		}
	}

	return payload, nil
}
