// Package strategy holds what every pluggable warehouse rule shares: a
// stable name used in configuration and a line shown to operators.
package strategy

// Kind groups strategies by the decision they make.
type Kind string

const (
	KindLotSelection Kind = "lot_selection"
)

type Strategy interface {
	Name() string
	Kind() Kind
	Description() string
}

// Descriptor is embedded by strategy implementations.
type Descriptor struct {
	kind        Kind
	name        string
	description string
}

func Describe(kind Kind, name, description string) Descriptor {
	return Descriptor{kind: kind, name: name, description: description}
}

func (d Descriptor) Name() string        { return d.name }
func (d Descriptor) Kind() Kind          { return d.kind }
func (d Descriptor) Description() string { return d.description }

// String renders kind/name, e.g. lot_selection/fefo.
func (d Descriptor) String() string { return string(d.kind) + "/" + d.name }
