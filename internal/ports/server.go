package ports

// Server is a long-running component owned by the server binary
type Server interface {
	// Start begins serving and returns once the listener is bound
	Start() error

	// Stop drains in-flight work and releases the listener
	Stop() error
}
