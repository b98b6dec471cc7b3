// Package cli defines the cmdgraph command tree. It turns flags and
// positional arguments into an app.Config and maps failures to process
// exit codes through ExitError.
package cli
