// Package web holds the dashboard's HTML templates and static assets.
package web

import "embed"

// FS contains templates/*.html and static/*.
//
//go:embed templates static
var FS embed.FS
