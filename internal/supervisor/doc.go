// Package supervisor spawns and supervises the processes of a flattened
// launch plan. Each spawned process gets its own monitor goroutine that
// reports the exit over a channel; a single coordinating loop owns every
// record transition, so no record state is mutated concurrently. A required
// node's crash trips an atomic fatal flag and cascades an ordered shutdown
// of everything else.
package supervisor
