// Package servicedef contains the HTTP paths and JSON request/response types of the two services
// the harness drives: the backend service and the sign-language recognition service.
//
// Response types list only the fields the test cases or the mock services care about; real
// services may send more.
package servicedef
