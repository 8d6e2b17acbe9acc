//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are installed globally via `go install` and are not tracked in go.mod
// since they are development tools, not runtime dependencies.
package tools

// Development tools (install via `go install`):
//
// Air - Live reload while working on the HTTP API
//   Install: go install github.com/air-verse/air@v1.63.0
//   Run: air -- rebuilds and restarts cmd/discfinder on change
//   Docs: https://github.com/air-verse/air
