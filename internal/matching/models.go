// Package matching implements the Matching Service (C8): a single,
// synchronous call into the geospatial index, no store reads in the hot
// path. It is the direct descendant of the ride-hailing service's
// NATS-driven offer-batching matcher, reduced to the one query the
// Dispatch Worker (C10) actually needs: an ordered list of nearby
// candidates.
package matching
