// Package logs reads daemon log files by byte offset so the CLI can page
// and follow them over IPC without holding the file open across calls.
package logs
