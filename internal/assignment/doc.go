// Package assignment holds the rules of the assignment lifecycle: the status
// state machine, the field registry and diff engine that produce history
// entries, the derivation of an item's displayed status, and the grouping of
// pending requests by person.
//
// Everything here is pure; persistence and transactions live in the store and
// service packages.
package assignment
