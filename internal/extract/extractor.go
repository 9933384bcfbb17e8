package extract

// Extractor defines the interface for vision extraction providers
type Extractor interface {
	// Extract sends a bill image/PDF to the provider and returns its raw
	// text response. The caller is responsible for parsing it.
	Extract(imageData []byte, contentType string) (string, error)
	// Close closes the extractor and releases resources
	Close() error
}
