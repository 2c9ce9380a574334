// Package websocket serves live filtering sessions. The browser sends a
// selection on every interaction and receives the report for the most
// recent one; results for selections that were overtaken are never sent.
package websocket
