// Package linkmap provides the crawling and site-mapping engine behind a
// web-content API. Given a target URL it discovers the page's ancestor and
// descendant relatives, fetches them concurrently, and assembles a
// hierarchical site tree for the discovered domain. Built trees are cached
// per logical root and merged incrementally on later requests.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, redis/, sqlite/).
package linkmap
