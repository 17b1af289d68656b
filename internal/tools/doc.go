// Package tools defines the agent-facing tools of the Rotina 1.7.8 server: the
// usage instructions, the four option listings, report generation and paginated
// extraction of the generated reports.
//
// Every tool answers with plain Portuguese text. Backend and store failures are
// rendered as text results so the agent can read them; only malformed arguments come
// back as *tool.ClientError.
package tools
