// Package metering measures billable usage and maps it to a price.
package metering

import "strings"

// CountTokens approximates the token count of text by counting
// whitespace-delimited words. It is a deliberately crude proxy for a real
// tokenizer, kept as the billing unit definition.
//
// Note the boundary quirk: splitting the empty string yields one empty
// token, so CountTokens("") == 1.
func CountTokens(text string) int64 {
	return int64(len(strings.Split(text, " ")))
}
