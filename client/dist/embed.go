// Package clientdist embeds the browser client served at /cohis.js.
package clientdist

import _ "embed"

// CohisJS is the thin client that mirrors the document into a live session
// and applies widget updates.
//
//go:embed cohis.js
var CohisJS []byte
