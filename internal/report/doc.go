// Package report renders scoring results for people and tools.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown output for tickets and chat
//
// Writers implement the Writer interface, so the CLI can pick one by flag
// and compose several with MultiWriter.
package report
