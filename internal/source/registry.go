package source

// Registry holds the configured sources in harvest order.
type Registry struct {
	sources []Source
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a source. Registration order is harvest order.
func (r *Registry) Register(s Source) {
	r.sources = append(r.sources, s)
}

// Get returns the source with the given name, or nil.
func (r *Registry) Get(name Name) Source {
	for _, s := range r.sources {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

// All returns all registered sources in harvest order.
func (r *Registry) All() []Source {
	return r.sources
}
