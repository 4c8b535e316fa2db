// Package parse converts raw provider payloads into normalized rows.
//
// Parsing is tolerant per entry: a missing or non-numeric price field
// becomes a NULL field on an otherwise-kept row, while an entry whose
// date key is unparsable (or that is not a JSON object at all) is
// skipped and counted. Only a payload that is not a daily series at all
// is an error.
package parse
