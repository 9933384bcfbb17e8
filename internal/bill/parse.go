package bill

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParsePayload recovers the structured payload from a provider's raw text
// response. Providers are told to return bare JSON but routinely wrap it
// in prose or markdown fences, so this locates the first { and the last }
// and parses that substring. Failure to find or parse a JSON object is
// ErrParseFailed.
func ParsePayload(text string) (map[string]interface{}, error) {
	text = strings.TrimSpace(text)

	// Remove opening markdown code blocks
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrParseFailed)
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("%w: unbalanced JSON object in response", ErrParseFailed)
	}

	text = text[startIdx : endIdx+1]

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	return raw, nil
}
