package cmd

// version is the tool version stamped into export metadata.
// Overridden at build time via -ldflags "-X .../cmd.version=...".
var version = "0.1.0"
