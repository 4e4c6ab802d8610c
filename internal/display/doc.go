// Package display renders the traceability matrix and its findings for the
// terminal.
//
// # Coverage Table
//
// RenderCoverage prints one row per requirement with its status and the
// tests that cover it, followed by the unjustified requirements and the
// anomalies found while correlating:
//
//	opts := display.Options{Color: display.ColorEnabled(os.Stdout)}
//	if err := display.RenderCoverage(os.Stdout, result, opts); err != nil {
//	    return err
//	}
//
// # Warning Messages
//
// Display warnings with optional components:
//
//	warning := display.Warning{
//	    Title:      "Orphan references",
//	    Message:    "Tests reference requirements missing from the catalog",
//	    Items:      []string{"LoginTest.java: TC-1 -> REQ-99"},
//	    Suggestion: "Fix the covers tag or add the requirement",
//	    Color:      true,
//	}
//	warning.Display(os.Stderr)
//
// # Colors
//
// Colors are only emitted when Options.Color (or Warning.Color) is set.
// ColorEnabled reports whether a writer is an interactive terminal.
// All functions accept io.Writer interfaces for testability.
package display
