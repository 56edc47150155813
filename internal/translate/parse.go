package translate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var codeFence = regexp.MustCompile("```(?:json)?\\s*")

// containers some models wrap the array in
var wrapperKeys = []string{"results", "translations", "data", "items"}

// parseResponseText turns a model reply into exactly expectedCount results.
func parseResponseText(provider, reply string, expectedCount int) ([]TranslationResult, error) {
	if strings.TrimSpace(reply) == "" {
		return nil, fmt.Errorf("no text in %s response", provider)
	}

	reply = cleanJSONResponse(reply)
	results, err := extractTranslationResults(reply)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w (response: %s)", err, truncate(reply, 200))
	}
	if len(results) != expectedCount {
		return nil, fmt.Errorf("expected %d results, got %d", expectedCount, len(results))
	}
	return results, nil
}

func cleanJSONResponse(s string) string {
	s = codeFence.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.TrimSpace(strings.ReplaceAll(s, "```", ""))
}

// escapeASSBreaks doubles backslashes that do not start a JSON escape.
// Models copy ASS line breaks (\N) and override tags ({\an8}) verbatim,
// which would otherwise make the whole reply invalid JSON.
func escapeASSBreaks(s string) string {
	var out strings.Builder
	out.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			out.WriteByte(s[i])
			continue
		}
		next := s[i+1]
		if !strings.ContainsRune(`"\/bfnrtu`, rune(next)) {
			out.WriteByte('\\')
		}
		out.WriteByte('\\')
		out.WriteByte(next)
		i++
	}
	return out.String()
}

// extractTranslationResults finds the first JSON value in text that holds
// translation objects, skipping any prose around it.
func extractTranslationResults(text string) ([]TranslationResult, error) {
	text = escapeASSBreaks(text)

	for start := strings.IndexAny(text, "[{"); start >= 0; {
		value := gjson.Parse(text[start:])
		if gjson.Valid(value.Raw) {
			if results := resultsFrom(value); hasText(results) {
				return results, nil
			}
		}
		next := strings.IndexAny(text[start+1:], "[{")
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, fmt.Errorf("no valid translation JSON found in response")
}

// resultsFrom reads an array of {index, text} objects, or the first such
// array inside a wrapper object.
func resultsFrom(value gjson.Result) []TranslationResult {
	if value.IsArray() {
		return decodeArray(value)
	}
	if !value.IsObject() {
		return nil
	}
	for _, key := range wrapperKeys {
		if results := decodeArray(value.Get(key)); hasText(results) {
			return results
		}
	}
	var found []TranslationResult
	value.ForEach(func(_, field gjson.Result) bool {
		if results := decodeArray(field); hasText(results) {
			found = results
			return false
		}
		return true
	})
	return found
}

func decodeArray(value gjson.Result) []TranslationResult {
	if !value.IsArray() {
		return nil
	}
	var results []TranslationResult
	for _, elem := range value.Array() {
		if !elem.IsObject() || !elem.Get("index").Exists() {
			return nil
		}
		results = append(results, TranslationResult{
			// gjson also reads "3" as 3
			Index: int(elem.Get("index").Int()),
			Text:  elem.Get("text").String(),
		})
	}
	return results
}

// hasText reports whether at least one result carries a translation.
func hasText(results []TranslationResult) bool {
	for _, r := range results {
		if r.Text != "" {
			return true
		}
	}
	return false
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
