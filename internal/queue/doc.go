// Package queue persists generation jobs in SQLite and provides the status
// machine the workflow manager drives.
//
// A job moves accepted -> researching -> researched -> drafting -> drafted ->
// naming -> naming_assigned -> synthesizing -> synthesized -> cataloging ->
// completed, or to failed from any in-flight stage. In-flight statuses carry
// heartbeats; jobs whose heartbeats expire are rolled back to the ready state
// preceding their current stage so another worker can pick them up.
//
// The store also holds canonical name reservations, which back the naming
// allocator's conflict detection.
package queue
