// Package cli provides the interactive Yudo Scheduler terminal client.
//
// It wires configuration, local storage, the API client and the page flows
// into an interactive REPL. Typical flow: restore a stored session (or log
// in), start the background connectivity watcher and link listener, and
// execute user commands.
//
// Key features:
//   - Login, signup with an e-mailed code, password reset, quick-login links
//   - Notification feed with type tabs, unread badge and detail view
//   - Dashboard view switching through the sidebar
//   - Logout / whoami
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
