// Package cli turns command-line flags into an app.Config. It owns usage
// text and the exit codes reported back to the shell.
package cli
