// Package suite contains a sequential test runner that is similar to Go's testing package, but is run
// as regular application code against live services rather than as Go tests. Cases run in the order
// they are given, may share state through variables captured by their closures, and can never abort
// the run: every failure, including a panic, is converted into a recorded result.
package suite
