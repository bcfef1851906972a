// Package framework contains the low-level implementation of the integration test harness that is
// not specific to any particular services. The base package contains shared types such as Logger;
// other components are in the subpackages harness, suite, and helpers.
//
// The general model is:
//
// 1. The harness launches each service under test as a child process and waits until every one of
// them answers HTTP requests.
//
// 2. A suite of test cases then runs, in a fixed order, against the live services. Cases may pass
// values to later cases, so the order matters and cases never run concurrently.
//
// 3. Whatever happens, the harness stops every process it started before it returns.
//
// The domain-specific code that knows what is being tested is responsible for providing the
// service definitions and the test cases.
package framework
