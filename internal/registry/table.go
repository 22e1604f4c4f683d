package registry

import (
	"fmt"
	"strings"

	"github.com/toyz/axon-aot/internal/utils"
)

// table implements NamedTable over an ordered BaseRegistry
type table[T Named] struct {
	kind    string
	entries *utils.BaseRegistry[string, T]
}

// NewTable creates an empty table. kind names the entries in errors, for
// example "supplier".
func NewTable[T Named](kind string) NamedTable[T] {
	entries := utils.NewBaseRegistry[string, T](kind)
	entries.SetValidator(utils.ChainValidators(
		utils.NotEmptyKeyValidator[T](kind+" name"),
		utils.NoDuplicateValidator[string, T](kind),
	))
	return &table[T]{kind: kind, entries: entries}
}

// Register appends entries. Names must be unique; the first duplicate stops
// registration.
func (t *table[T]) Register(entries ...T) error {
	for _, e := range entries {
		if err := t.entries.Register(e.Name(), e); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that every name is registered
func (t *table[T]) Validate(names []string) error {
	var missing []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !t.entries.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("unknown %s(s): %s", t.kind, strings.Join(missing, ", "))
	}
	return nil
}

func (t *table[T]) Get(name string) (T, bool) {
	return t.entries.Get(name)
}

// Remove drops entries by name. Nothing is removed when any name is unknown.
func (t *table[T]) Remove(names ...string) error {
	if err := t.Validate(names); err != nil {
		return err
	}
	for _, name := range names {
		t.entries.Delete(strings.TrimSpace(name))
	}
	return nil
}

func (t *table[T]) Names() []string {
	return t.entries.List()
}

func (t *table[T]) List() []T {
	return t.entries.Values()
}
