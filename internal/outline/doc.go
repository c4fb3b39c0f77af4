// Package outline produces the documentation structure for a repository.
// The synthesizer tries the external generation service, then the
// configured model, and always lands on the fixed default outline, so a
// structure exists for every request. Producers return one of two shapes,
// a nested node tree or flat sections with subsections, and both survive
// into the response unchanged.
package outline
