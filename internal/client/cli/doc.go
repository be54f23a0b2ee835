// Package cli is the NutriNow terminal client: an interactive REPL and a
// cobra command tree over the client services.
package cli
