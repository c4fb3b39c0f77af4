// Package generate turns an outline into markdown pages, one model call
// per node. Nodes run sequentially with a pacing delay between calls;
// throttled calls get exactly one retry after a cooldown, and any node that
// still fails gets a placeholder page instead of failing the request.
package generate
