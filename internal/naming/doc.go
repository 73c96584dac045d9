// Package naming allocates and validates canonical episode names.
//
// Two name families exist: evergreen names carry a monotonically increasing
// six-digit sequence per category (evergreen-bio-250041), news names carry a
// DDMMYYYY date stamp with a four-digit serial appended from the second item
// for the same category and date onward (news-chem-28032025-0001).
//
// Allocation serializes per category through a file lock, then derives the
// next free number from the union of published audio artifacts and pending
// reservations. A name that already matches either canonical shape is never
// replaced.
package naming
