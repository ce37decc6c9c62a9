package bank

// Implementation is a deployable upgrade candidate.
type Implementation struct {
	Name      string
	version   uint64
	versioned bool
}

// NewImplementation creates a candidate exposing version.
func NewImplementation(name string, version uint64) *Implementation {
	return &Implementation{Name: name, version: version, versioned: true}
}

// NewUnversionedImplementation creates a candidate without a version query.
func NewUnversionedImplementation(name string) *Implementation {
	return &Implementation{Name: name}
}

// Version reports the candidate version. The bool is false for candidates
// that do not expose one.
func (i *Implementation) Version() (uint64, bool) {
	return i.version, i.versioned
}
