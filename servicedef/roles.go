package servicedef

// Service roles. The harness passes each service's base URL to the test suite keyed by role.
const (
	RoleBackend     = "backend"
	RoleRecognition = "recognition"
)
