// Package fetch downloads an upstream source archive, verifies it, and
// unpacks it into a deterministic folder inside the working directory.
// Repeated calls with the same URL and destination are no-ops: a stamp file
// written after a successful extraction records what the folder contains.
package fetch
