// Package discord holds the wire types for the interactions webhook plus
// the request signature verifier.
//
// Nothing here talks to the network; parsing and verification are pure so
// they can run under unbounded concurrent requests.
package discord
