// Package connectors groups the ContentSource implementations. Each
// connector knows how to talk to one remote system; notion is currently
// the only one.
package connectors
