// Package gitfetch collects documentation files from a shallow git clone.
//
// It backs the clone fetch mode: when a repository is too large for API
// traversal (or clone mode is configured outright), the working tree is
// cloned into a scratch workspace, walked for documentation files, and
// removed again unless workspaces are kept for debugging.
package gitfetch
