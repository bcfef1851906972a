// Package mockservices contains stand-in implementations of the backend and recognition services.
//
// They implement the same HTTP contracts as the real services with trivial in-memory logic, so the
// harness can be run end to end without the real services (see cmd/mockservice) and so the test
// cases can be unit-tested against httptest servers.
package mockservices
