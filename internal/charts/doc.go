// Package charts renders the dashboard's summary charts as PNG images.
//
// Each Kind draws one grouped count from a domain.Summary:
//
//	sla         pie of tickets by Resolution Status
//	type-shift  stacked bars of TicketTypeShort split by Shift Timing
//	priority    bars of tickets by Priority
//	type        bars of tickets by TicketTypeShort
//	monthly     bars of tickets by Created Month
//
// A kind with no data returns ErrNoData instead of an empty image.
package charts
