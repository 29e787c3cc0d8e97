// Package parser recovers the organized result from free-form model output.
//
// The model is asked for a single JSON object but routinely wraps it in
// prose or markdown fences. FindBlock locates the first balanced object;
// Parse decodes it strictly and removes repeated questions.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pbaille/pyq/internal/domain"
)

// FindBlock returns the minimal balanced {...} block starting at the first
// '{' in raw. Braces inside JSON string literals do not count. Output with
// no closing brace after the first '{', such as a reply cut off mid-object,
// has no structured block; one that closes some braces but never balances
// is malformed.
func FindBlock(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", domain.ErrNoStructuredBlock
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	if strings.IndexByte(raw[start:], '}') < 0 {
		return "", fmt.Errorf("%w: object starting at offset %d is never closed", domain.ErrNoStructuredBlock, start)
	}
	return "", fmt.Errorf("%w: unterminated object starting at offset %d", domain.ErrMalformedResult, start)
}

// Parse extracts and validates the organized result embedded in raw.
// Every value must be an array of strings; anything else is rejected.
func Parse(raw string) (domain.OrganizedResult, error) {
	block, err := FindBlock(raw)
	if err != nil {
		return nil, err
	}
	units, err := decode(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedResult, err)
	}
	return dedupe(units), nil
}

type unit struct {
	name      string
	questions []string
}

// decode walks the top-level object so units keep the order the model
// emitted them in.
func decode(block string) ([]unit, error) {
	dec := json.NewDecoder(strings.NewReader(block))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("result is not a JSON object")
	}

	var units []unit
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name := tok.(string)
		if strings.TrimSpace(name) == "" {
			return nil, errors.New("empty unit name")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("unit %q: %w", name, err)
		}
		questions, err := decodeQuestions(raw)
		if err != nil {
			return nil, fmt.Errorf("unit %q: %w", name, err)
		}

		if i, ok := index[name]; ok {
			units[i].questions = append(units[i].questions, questions...)
			continue
		}
		index[name] = len(units)
		units = append(units, unit{name: name, questions: questions})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return units, nil
}

func decodeQuestions(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, errors.New("value is not an array")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	questions := make([]string, 0, len(items))
	for i, item := range items {
		if len(item) == 0 || item[0] != '"' {
			return nil, fmt.Errorf("item %d is not a string", i)
		}
		var q string
		if err := json.Unmarshal(item, &q); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}
