// Package cli provides the interactive site-survey command-line client.
//
// It wires configuration, the local store, the backend adapter, the
// connectivity monitor, and the sync orchestrator behind an interactive REPL
// that works fully offline. Typical flow: register the device once, then
// create and edit survey drafts while a background watcher probes the server
// and triggers sync on reconnect.
//
// Key features:
//   - Register the device with an access code
//   - Create / open / edit survey drafts with debounced auto-save
//   - Attach photos to form fields and stage their upload
//   - Inspect sync status, trigger a sync, review failed changes
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
