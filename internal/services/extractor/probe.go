package extractor

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxResponseBytes bounds how much of a scraper's JSON reply is read.
const maxResponseBytes = 1 << 20

func lookup(m map[string]interface{}, key string) (interface{}, bool) {
	outer, inner, nested := strings.Cut(key, ".")
	if !nested {
		v, ok := m[key]
		return v, ok
	}
	obj, ok := m[outer].(map[string]interface{})
	if !ok {
		return nil, false
	}
	v, ok := obj[inner]
	return v, ok
}

// firstString returns the value of the first key present in m. A key of the
// form "a.b" looks one level into a nested object. Lookup stops at the first
// present key even when its value is empty or not a string.
func firstString(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		v, ok := lookup(m, key)
		if !ok {
			continue
		}
		s, _ := v.(string)
		return strings.TrimSpace(s)
	}
	return ""
}

// checkStatus maps scraper HTTP statuses onto extractor errors.
func checkStatus(resp *http.Response, service string) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return ErrPostNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%s returned status %d", service, resp.StatusCode)
	}
	return nil
}

func decodeObject(r io.Reader) (map[string]interface{}, error) {
	var obj map[string]interface{}
	if err := json.NewDecoder(io.LimitReader(r, maxResponseBytes)).Decode(&obj); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return obj, nil
}
