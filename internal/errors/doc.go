// Package errors provides structured, actionable error messages for the
// cohis command and server.
//
// Every error carries a code (e.g. "E102") that maps to a category, a short
// message, a longer explanation and a documentation link. Callers add
// context with the With* builders and render with Format for the terminal or
// FormatJSON for HTTP responses.
//
// # Categories
//
//   - config: cohis.json / cohis.yaml problems
//   - cli: command-line usage errors
//   - protocol: live session wire errors
//   - validation: rejected request bodies
//   - storage: upload store failures
//
// # Usage
//
//	err := errors.New("E102").
//	    WithDetail("port 70000 is out of range").
//	    WithSuggestion("Use a port between 1 and 65535")
//
//	fmt.Print(err.Format())
package errors
