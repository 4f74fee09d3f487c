package lark

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Rule is a gjson path into a JSON object, e.g. "data.file.token".
type Rule string

// Lookup returns the string found at the path in body, or "" if the path is
// missing or the value there is not a non-empty string.
func (r Rule) Lookup(body []byte) string {
	res := gjson.GetBytes(body, string(r))
	if res.Type != gjson.String {
		return ""
	}
	return res.Str
}

// Rules are evaluated in order; the first non-empty match wins.
type Rules []Rule

// First returns the first non-empty match.
func (rs Rules) First(body []byte) string {
	for _, r := range rs {
		if v := r.Lookup(body); v != "" {
			return v
		}
	}
	return ""
}

// The copy response has been observed in several shapes: the drive v1
// envelope with the file under "data", an older envelope nesting it under
// "data.file", and a bare object.
var (
	DocumentTokenRules = Rules{"data.token", "data.file.token", "token"}
	DocumentURLRules   = Rules{"data.url", "data.file.url", "url"}
)

// NormalizeCopyResponse extracts the new document's token and URL from a copy
// response body. It fails when the body is not a JSON object or no token can
// be found; a missing URL is not an error.
func NormalizeCopyResponse(body []byte) (*CopyResult, error) {
	body = bytes.TrimSpace(body)
	if !gjson.ValidBytes(body) {
		return nil, errors.New("failed to decode response: invalid JSON")
	}

	doc := gjson.ParseBytes(body)
	switch {
	case doc.Type == gjson.Null:
		return nil, errors.New("response is not a JSON object")
	case !doc.IsObject():
		return nil, fmt.Errorf("failed to decode response: expected a JSON object, got %s", jsonKind(doc))
	}

	token := DocumentTokenRules.First(body)
	if token == "" {
		return nil, errors.New("response has no document token")
	}

	return &CopyResult{
		Token: token,
		URL:   DocumentURLRules.First(body),
		Raw:   json.RawMessage(body),
	}, nil
}

func jsonKind(r gjson.Result) string {
	if r.IsArray() {
		return "array"
	}
	return r.Type.String()
}
