// Package analysis turns a fetched repository bundle into the metadata the
// pipeline prompts and responses are built from: tech stack, setup command
// and business-domain guesses from local heuristics, plus an optional
// model-written summary.
package analysis
