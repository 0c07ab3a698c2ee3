package types

// Version is the canonical project version.
// The CLI, wire contract, and capture file format share this version
// per the lockstep versioning policy.
const Version = "0.3.0"
