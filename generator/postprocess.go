package generator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const (
	opSuggest       = "suggest topics"
	opGeneratePost  = "generate post"
	opGenerateImage = "generate images"
	opFreeform      = "generate freeform post"
)

var payloadKeys = []string{"title", "contentTemplate", "imagePrompts", "tags", "qna"}

var fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// stripFence removes a surrounding markdown code fence some models add despite instructions.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(s); len(m) == 2 {
		return m[1]
	}
	return s
}

// ParseTopics decodes {"topics": [...]} into the ordered title list.
func ParseTopics(raw string) ([]string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripFence(raw)), &obj); err != nil {
		return nil, &ShapeError{Op: opSuggest, Reason: "response is not a JSON object", Err: err}
	}
	field, ok := obj["topics"]
	if !ok || isNull(field) {
		return nil, &ShapeError{Op: opSuggest, Reason: `missing "topics"`}
	}
	var topics []string
	if err := json.Unmarshal(field, &topics); err != nil {
		return nil, &ShapeError{Op: opSuggest, Reason: `"topics" is not an array of strings`, Err: err}
	}
	return topics, nil
}

// ParsePayload decodes the structured post response. A response that is not
// JSON is a RequestError; a JSON object missing any required key, or holding a
// key of the wrong type, is a ShapeError. Missing fields are never defaulted.
func ParsePayload(raw string) (Payload, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripFence(raw)), &obj); err != nil {
		return Payload{}, &RequestError{Op: opGeneratePost, Err: fmt.Errorf("decode response: %w", err)}
	}
	for _, key := range payloadKeys {
		if v, ok := obj[key]; !ok || isNull(v) {
			return Payload{}, &ShapeError{Op: opGeneratePost, Reason: fmt.Sprintf("missing %q", key)}
		}
	}

	var p Payload
	fields := []struct {
		key string
		dst any
	}{
		{"title", &p.Title},
		{"contentTemplate", &p.ContentTemplate},
		{"imagePrompts", &p.ImagePrompts},
		{"tags", &p.Tags},
		{"qna", &p.QnA},
	}
	for _, f := range fields {
		if err := json.Unmarshal(obj[f.key], f.dst); err != nil {
			return Payload{}, &ShapeError{Op: opGeneratePost, Reason: fmt.Sprintf("field %q has the wrong type", f.key), Err: err}
		}
	}
	return p, nil
}

func isNull(v json.RawMessage) bool {
	return strings.TrimSpace(string(v)) == "null"
}

// CountPlaceholders returns how many distinct <!-- IMAGE_n --> markers appear in template.
func CountPlaceholders(template string) int {
	seen := make(map[string]struct{})
	for _, m := range placeholderRe.FindAllString(template, -1) {
		seen[m] = struct{}{}
	}
	return len(seen)
}
