// Package services implements the business logic layer of the ticket
// dashboard. Handlers translate HTTP into service calls; services own the
// dataset lifecycle and run the reporting pipeline.
//
// # Services
//
//	DashboardService  upload, report, export, chart and delete datasets
//	HealthService     liveness, readiness and version information
//
// # Error Handling
//
// Services return package-level errors from the layers below (store,
// dataprocessing, validation, charts). ToAPIError maps them to
// *apierrors.APIError values for the HTTP layer:
//
//	if err != nil {
//	    h.errorHandler.HandleError(w, r, services.ToAPIError(err))
//	    return
//	}
//
// # Observability
//
// Every operation opens a span on the injected tracer and records the
// dashboard instruments from infrastructure.DashboardMetrics. Logs carry the
// dataset ID and row counts.
package services
