package ai

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrMalformedResponse is returned when generated text holds no JSON object
var ErrMalformedResponse = errors.New("malformed generated content")

// StripCodeFences removes a surrounding ``` or ```json fence from model output
func StripCodeFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag on the opening fence line
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Decode unmarshals the first JSON object found in text into v
func Decode(text string, v any) error {
	s := StripCodeFences(text)
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	// models sometimes wrap the object in prose
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ErrMalformedResponse
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), v); err != nil {
		return errors.Join(ErrMalformedResponse, err)
	}
	return nil
}

// ParseObject decodes text into a generic JSON object
func ParseObject(text string) (map[string]any, error) {
	var out map[string]any
	if err := Decode(text, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrMalformedResponse
	}
	return out, nil
}
