// Package reportstore saves the outcome of a harness run as a JSON run record, either to a local file
// or to a shared store (Redis, Consul, or DynamoDB) where CI dashboards can pick it up.
package reportstore
