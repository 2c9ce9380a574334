// Package http implements the dashboard's HTTP handlers: the dataset JSON
// API, file and chart downloads, the server-rendered pages and the upgrade
// to a live filtering WebSocket.
//
// Handlers stay thin. They parse the request, call the dashboard service and
// format the response. Service errors are mapped with services.ToAPIError and
// written as RFC 7807 problem details by the shared ErrorHandler:
//
//	{
//	    "type": "/errors/data/dataset-not-found",
//	    "title": "Not Found",
//	    "status": 404,
//	    "detail": "Dataset not found or expired",
//	    "error_code": "DATASET_NOT_FOUND"
//	}
//
// A selection travels in the query string as repeated priority, type, sla,
// status, shift and date parameters, or as a JSON body on the report route.
package http
