// Package errors provides coded errors for CLI and configuration
// diagnostics.
//
// Every well-known failure has a registered code (e.g. "E120") with a
// category, message, detail, and documentation link. The CLI renders
// them as a terminal block via PrintError.
//
//	err := errors.New("E120").
//	    Wrap(parseErr).
//	    WithSuggestion("quote string values containing colons")
//	errors.PrintError(err)
package errors
