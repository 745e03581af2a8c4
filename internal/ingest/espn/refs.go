package espn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Collection is the paginated envelope the upstream wraps around its
// reference listings.
type Collection struct {
	Count     int               `json:"count"`
	PageIndex int               `json:"pageIndex"`
	PageSize  int               `json:"pageSize"`
	PageCount int               `json:"pageCount"`
	Items     []json.RawMessage `json:"items"`
}

// Ref is a field the upstream serves either as a pointer-only
// {"$ref": url} object or as the inline entity itself.
type Ref[T any] struct {
	URL   string
	Value *T
}

// UnmarshalJSON distinguishes pointers from inline entities. Only an object
// whose sole key is $ref is a pointer; entities that carry a $ref self link
// next to real fields decode inline.
func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err == nil {
		if refRaw, ok := fields["$ref"]; ok && len(fields) == 1 {
			var ref string
			if err := json.Unmarshal(refRaw, &ref); err != nil {
				return fmt.Errorf("decoding $ref: %w", err)
			}
			r.URL = ref
			r.Value = nil
			return nil
		}
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	r.Value = &v
	return nil
}

// Resolve materializes the entity: a no-op for inline values, one GET for
// pointers. Resolving the same Ref twice reuses the first result.
func (r *Ref[T]) Resolve(ctx context.Context, c *Client) (*T, error) {
	if r.Value != nil {
		return r.Value, nil
	}
	if r.URL == "" {
		return nil, errors.New("empty reference")
	}
	var v T
	if err := c.GetJSON(ctx, r.URL, &v); err != nil {
		return nil, err
	}
	r.Value = &v
	return r.Value, nil
}

// ResolveCollection walks a paginated collection and materializes every item
// as raw JSON, following $ref pointers one GET at a time (the client pacer
// spaces the calls). Behavior at the edges:
//
//   - a missing or empty items list ends pagination with whatever has been
//     accumulated (an empty page 1 yields an empty result, not an error);
//   - a failed item fetch is skipped with a warning and the page continues;
//   - a failed envelope fetch degrades the whole call to an empty result
//     with an error log; callers must treat empty as ambiguous, it can mean
//     "nothing this week" or "upstream down".
func (c *Client) ResolveCollection(ctx context.Context, baseURL string) []json.RawMessage {
	var out []json.RawMessage

	for page := 1; ; page++ {
		var envelope Collection
		if err := c.GetJSON(ctx, pageURL(baseURL, page), &envelope); err != nil {
			c.log.WithError(err).WithFields(logrus.Fields{
				"url":  baseURL,
				"page": page,
			}).Error("collection fetch failed, degrading to empty result")
			return nil
		}

		if len(envelope.Items) == 0 {
			break
		}

		for _, raw := range envelope.Items {
			var item Ref[json.RawMessage]
			if err := json.Unmarshal(raw, &item); err != nil {
				c.log.WithError(err).Warn("skipping undecodable collection item")
				continue
			}

			if item.Value != nil {
				out = append(out, *item.Value)
				continue
			}

			body, err := item.Resolve(ctx, c)
			if err != nil {
				c.log.WithError(err).WithField("ref", item.URL).Warn("skipping unresolvable item")
				continue
			}
			out = append(out, *body)
		}

		if page >= envelope.PageCount {
			break
		}
	}

	return out
}

// ResolveCollectionAs resolves a collection and decodes each item into T,
// dropping items that fail to decode.
func ResolveCollectionAs[T any](ctx context.Context, c *Client, baseURL string) []T {
	raws := c.ResolveCollection(ctx, baseURL)
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			c.log.WithError(err).Warn("dropping undecodable item")
			continue
		}
		out = append(out, v)
	}
	return out
}

// pageURL appends/overrides the page parameter on a collection URL.
func pageURL(baseURL string, page int) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
