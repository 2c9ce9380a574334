// Package dataprocessing implements the ticket reporting pipeline: loading a
// spreadsheet, deriving the computed columns, filtering by an operator's
// selection and summarizing the result.
//
// # Data Flow
//
//	file bytes → Loader → RawTable → Derive → TicketTable
//	TicketTable + Selection → Apply → filtered TicketTable → Summarize → Summary
//
// Every stage after loading is a pure function of its inputs. A TicketTable is
// never mutated once Derive returns it, so one table may back any number of
// concurrent Apply and Summarize calls.
//
// # Usage
//
//	loader := dataprocessing.NewLoader(logger)
//	table, err := loader.LoadFile(ctx, "data.xlsx")
//	if err != nil {
//	    var le *dataprocessing.LoadError
//	    if errors.As(err, &le) { ... }
//	}
//	filtered, warnings := dataprocessing.Apply(table, domain.Selection{Priorities: []string{"P4"}})
//	summary := dataprocessing.Summarize(filtered)
//
// # Error Handling
//
// LoadError is the only fatal error. A missing column is never an error. A
// malformed date range produces a DateFilterError that Apply reports as a
// warning while still applying every other predicate.
package dataprocessing
