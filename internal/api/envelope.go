package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mmcdole/medbook/internal/domain"
	"github.com/tidwall/gjson"
)

// The server wraps most responses as {success, message, data}. Unwrapping happens
// here and nowhere else, so callers always decode the domain shape.

// envelopeError reports a 2xx envelope carrying success=false
func envelopeError(status int, body []byte) error {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return nil
	}
	if ok := gjson.GetBytes(body, "success"); ok.Exists() && ok.Type == gjson.False {
		return &domain.APIError{
			Status:  status,
			Message: errorMessage(status, body),
			Payload: body,
		}
	}
	return nil
}

// payload returns the data field when present, otherwise the whole body
func payload(body []byte) []byte {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return body
	}
	res := gjson.ParseBytes(body)
	if !res.IsObject() {
		return body
	}
	if data := res.Get("data"); data.Exists() {
		return []byte(data.Raw)
	}
	return body
}

// errorMessage picks the text to show for a failed call: the server's message,
// then its error field, then the HTTP status text
func errorMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		res := gjson.ParseBytes(body)
		if m := res.Get("message"); m.Type == gjson.String && m.Str != "" {
			return m.Str
		}
		if e := res.Get("error"); e.Exists() {
			switch {
			case e.Type == gjson.String && e.Str != "":
				return e.Str
			case e.IsObject() && e.Get("message").Str != "":
				return e.Get("message").Str
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}

// decodeData unmarshals an unwrapped payload into out
func decodeData(payload []byte, out any) error {
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// decodePage reads a list response. Items come from data (an array) or data.items;
// pagination from the top level or from data. A missing pagination block is
// synthesized from the item count.
func decodePage[T any](body []byte, page, limit int) (domain.Page[T], error) {
	var out domain.Page[T]
	if !gjson.ValidBytes(body) {
		return out, fmt.Errorf("failed to parse response: invalid json")
	}
	res := gjson.ParseBytes(body)

	items := res.Get("data")
	if !items.Exists() {
		items = res
	}
	pagination := res.Get("pagination")
	if items.IsObject() {
		if !pagination.Exists() {
			pagination = items.Get("pagination")
		}
		for _, field := range []string{"items", "results", "docs"} {
			if v := items.Get(field); v.IsArray() {
				items = v
				break
			}
		}
	}

	if items.IsArray() {
		if err := json.Unmarshal([]byte(items.Raw), &out.Items); err != nil {
			return out, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	if out.Items == nil {
		out.Items = []T{}
	}

	if pagination.IsObject() {
		if err := json.Unmarshal([]byte(pagination.Raw), &out.Pagination); err != nil {
			return out, fmt.Errorf("failed to parse pagination: %w", err)
		}
		if out.Pagination.Pages < 1 {
			out.Pagination.Pages = domain.SyntheticPagination(out.Pagination.Total, out.Pagination.Page, out.Pagination.Limit).Pages
		}
		return out, nil
	}
	out.Pagination = domain.SyntheticPagination(len(out.Items), page, limit)
	return out, nil
}
