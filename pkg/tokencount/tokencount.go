// Package tokencount provides the cheap local token estimates used by the
// upload analyzer. The numbers gate which generation mode a document may
// use; they do not need provider-grade accuracy, only consistency.
package tokencount

// EstimateText approximates the token count of plain text (~4 chars/token).
func EstimateText(text string) int {
	n := len(text) / 4
	if n < 1 {
		return 1
	}
	return n
}

// EstimateBinary approximates the token count of a binary payload that a
// provider would ingest natively (~6 bytes/token).
func EstimateBinary(size int) int {
	n := size / 6
	if n < 1 {
		return 1
	}
	return n
}
