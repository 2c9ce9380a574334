// Package app wires the ticket dashboard together and manages its lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from environment and the optional YAML file
//  2. Initialize logging and OpenTelemetry
//  3. Create the dataset store and the dashboard service
//  4. Create the live session hub
//  5. Set up HTTP handlers, pages and middleware
//  6. Preload the default data file and start the HTTP server
//
// # Routing
//
// The live filtering route /ws/datasets/{id} is registered before the
// middleware group so nothing wraps the ResponseWriter ahead of the upgrade.
// Everything else runs behind tracing, structured logging, panic recovery,
// security headers, CORS and rate limiting. /metrics sits outside the group.
//
// # Usage
//
//	application, err := app.NewApplication(web.FS)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// # Graceful Shutdown
//
// Run handles SIGINT and SIGTERM. Stop drains in-flight requests, closes live
// sessions with a normal closure frame, stops the store janitor, closes the
// store and flushes OpenTelemetry. The package never calls os.Exit.
package app
