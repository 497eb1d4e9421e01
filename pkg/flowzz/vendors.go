package flowzz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	pkgerrors "github.com/angelmondragon/flowzz-ingest/pkg/errors"
)

// VendorPageResult holds the raw vendor payloads offered for one product.
type VendorPageResult struct {
	Vendors []json.RawMessage
}

// FetchVendors loads the vendor/price list for a catalog item. A 429 comes
// back as an error with CodeRateLimit (see IsRateLimited).
func (c *Client) FetchVendors(ctx context.Context, catalogID int64) (*VendorPageResult, error) {
	endpoint := fmt.Sprintf("%s/v1/views/vendors/price/2/%d", c.baseURL, catalogID)

	body, status, err := c.get(ctx, endpoint, map[string]string{"Accept": "application/json"}, c.credentials)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "vendor price endpoint returned 429").
			WithDetails(map[string]any{"source_id": catalogID})
	default:
		return nil, statusError(endpoint, status, body)
	}

	vendors, err := parseVendorList(body)
	if err != nil {
		return nil, err
	}
	return &VendorPageResult{Vendors: vendors}, nil
}

// parseVendorList accepts the list under either "vendors" or "data"; live
// payloads have shown both. A non-empty "vendors" array wins.
func parseVendorList(body []byte) ([]json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProtocol, err, "vendor response is not a JSON object")
	}
	if top == nil {
		return nil, pkgerrors.New(pkgerrors.CodeProtocol, "vendor response is null")
	}

	if list := rawArray(top["vendors"]); len(list) > 0 {
		return list, nil
	}
	if list := rawArray(top["data"]); list != nil {
		return list, nil
	}
	return []json.RawMessage{}, nil
}

func rawArray(raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}
