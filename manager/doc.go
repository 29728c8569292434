// Package manager implements the manager (spec component F): the
// lifecycle state machine, the interface and drive-interface rosters,
// the global FD map, cross-thread messaging, and thread bring-up and
// teardown coordination.
package manager
