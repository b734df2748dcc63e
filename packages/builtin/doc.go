// Package builtin provides the functions that suite definitions can call
// inside placeholders, such as {{currentYear()}}.
//
// Available functions:
//   - currentYear(zone): Current calendar year, optionally in an IANA zone
//   - now(layout): Current time, RFC 3339 by default
//   - date(layout): Current date, 2006-01-02 by default
//   - timestamp(): Current Unix timestamp
//   - timestampMs(): Current Unix timestamp in milliseconds
//   - uuid(): Random UUID v4
//   - randomString(length): Random alphanumeric string
//   - base64(value): Base64 encode a string
//   - urlEncode(value): Query-escape a string
//
// Time functions read a Clock so results can be pinned in tests.
package builtin
