// Package linguatests contains the cross-service integration test cases that run against the
// backend and recognition services once the harness has them up.
//
// The cases run in a fixed order and several of them consume data that an earlier case produced
// (the authenticated user, the translation session, the video room). That data lives in a scratch
// value created fresh for each run; a case whose dependency is missing fails with a message naming
// it instead of sending a request that is bound to fail.
package linguatests
