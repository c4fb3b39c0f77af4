// Package workspace manages the scratch directory used by clone-mode
// fetches.
//
// Each fetch checks out into a uniquely named subdirectory and releases it
// when collection finishes. With keep_workspaces set, released checkouts are
// retained on disk for debugging instead of being removed.
package workspace
