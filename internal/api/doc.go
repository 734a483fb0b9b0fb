// Package api exposes the operational REST surface of the daemon: the
// trade journal, the managed account list, health and Prometheus-style
// metrics. The agent-facing tools live on the MCP server instead.
package api
