package types

// Version is the canonical project version.
// The CLI and all packages share this version; releases bump it in lockstep.
const Version = "0.3.0"
