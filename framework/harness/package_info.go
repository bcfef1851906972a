// Package harness launches the services under test as child processes, waits for them to answer
// HTTP, hands their endpoints to a test suite, and always tears the processes down afterward.
//
// It contains no domain-specific test logic, but only provides a general mechanism for test suites
// to build on.
package harness
