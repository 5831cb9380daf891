// Package preflight provides readiness checks for the filesystem paths and
// provider configuration whetstone depends on.
//
// These checks run in two contexts:
//   - The daemon runs them at startup and logs anything that fails, so a
//     doomed configuration is visible before the first request arrives.
//   - The CLI "whetstone status" command includes them in its output,
//     covering the offline case where the daemon cannot answer.
package preflight
