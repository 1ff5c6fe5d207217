package settings

// Persistence defines the key-value backend the Store writes through to
type Persistence interface {
	// LoadAll returns every persisted value keyed by setting name
	LoadAll() (map[string][]byte, error)
	// Save persists one serialized value
	Save(name string, value []byte) error
	// Close releases resources
	Close() error
}

// BatchSaver is implemented by backends that can persist several values atomically
type BatchSaver interface {
	SaveAll(values map[string][]byte) error
}

// Defaults holds values that depend on the host rather than the registry
type Defaults struct {
	// SaveDirectory is where recordings go while saveDirectory is unset
	SaveDirectory string
}
