package registry

// Named is anything a registration table can hold: suppliers, contributors
// and graph emitters all identify themselves by name.
type Named interface {
	Name() string
}

// NamedTable tracks named entries in registration order
type NamedTable[T Named] interface {
	Register(entries ...T) error
	Validate(names []string) error
	Get(name string) (T, bool)
	Remove(names ...string) error
	Names() []string
	List() []T
}
