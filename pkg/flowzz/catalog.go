package flowzz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/angelmondragon/flowzz-ingest/pkg/enums"
	pkgerrors "github.com/angelmondragon/flowzz-ingest/pkg/errors"
	"github.com/angelmondragon/flowzz-ingest/pkg/pagination"
)

// PageResult is one page of a category listing. Items stay raw; mapping is
// done downstream.
type PageResult struct {
	Items     []json.RawMessage
	Page      int
	PageCount int
}

type listingEnvelope struct {
	Data struct {
		Data []json.RawMessage `json:"data"`
		Meta struct {
			Pagination pagination.Meta `json:"pagination"`
		} `json:"meta"`
	} `json:"data"`
}

// FetchPage loads one page of the listing view for category.
func (c *Client) FetchPage(ctx context.Context, category enums.Category, page, pageSize int) (*PageResult, error) {
	if !category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown category %q", category))
	}
	if page < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "page must be >= 1")
	}
	if pageSize <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "page size must be > 0")
	}

	params := url.Values{}
	params.Set("pagination[page]", strconv.Itoa(page))
	params.Set("pagination[pageSize]", strconv.Itoa(pageSize))
	params.Set("avail", "0")
	endpoint := fmt.Sprintf("%s/v1/views/%s?%s", c.baseURL, category, params.Encode())

	body, status, err := c.get(ctx, endpoint, nil, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError(endpoint, status, body)
	}

	return parseListing(body, page)
}

func parseListing(body []byte, requested int) (*PageResult, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProtocol, err, "listing response is not a JSON object")
	}
	if len(top) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeProtocol, "listing response is empty")
	}

	var env listingEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProtocol, err, "decode listing response")
	}

	meta := env.Data.Meta.Pagination.Resolve(requested)
	return &PageResult{
		Items:     env.Data.Data,
		Page:      meta.Page,
		PageCount: meta.PageCount,
	}, nil
}
