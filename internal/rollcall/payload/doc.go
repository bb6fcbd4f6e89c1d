// Package payload classifies the raw text decoded from a scanned code.
//
// Classification is pure and total: every input maps to exactly one Intent,
// and malformed input becomes an Invalid intent instead of an error. The set
// of intents is closed; callers switch over the concrete types.
package payload
