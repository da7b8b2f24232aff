package value

import (
	"weak"

	"github.com/wfl-lang/wflcore/core/ast"
)

// MethodDef is a method body attached to a ContainerDefinition, bound
// at call time with a fresh `this` (spec §3.1, §4.4.6).
type MethodDef struct {
	Name   string
	Params []string
	Body   []ast.Statement
}

// EventHandler is one handler attached via `on X.E { ... }` (spec
// §4.4.6). It captures a weak environment reference the same way a
// Function literal does; a dropped environment makes the handler
// silently skippable at trigger time (spec §4.5).
type EventHandler struct {
	Body []ast.Statement
	Env  weak.Pointer[Environment]
}

// ContainerEvent is a first-class event value with its attached
// handlers in registration order (spec §3.1).
type ContainerEvent struct {
	Name     string
	Params   []string
	Handlers []*EventHandler
}

func (*ContainerEvent) TypeName() string  { return "event" }
func (e *ContainerEvent) Display() string { return "<event " + e.Name + ">" }
func (*ContainerEvent) Truthy() bool      { return true }
func (*ContainerEvent) valueMarker()      {}

// ContainerDefinition is a class-like record (spec §3.1). Property
// defaults are stored pre-evaluated: spec §4.4.6 requires default
// values to be evaluated eagerly at definition time, so by the time a
// ContainerDefinition exists its Properties map already holds Values,
// not unevaluated expressions.
type ContainerDefinition struct {
	Name             string
	Parent           string // "" if none
	Interfaces       []string
	Properties       map[string]Value
	PropertyOrder    []string
	Methods          map[string]*MethodDef
	Events           map[string]*ContainerEvent
	StaticProperties map[string]Value
	StaticMethods    map[string]*MethodDef
}

func NewContainerDefinition(name string) *ContainerDefinition {
	return &ContainerDefinition{
		Name:             name,
		Properties:       make(map[string]Value),
		Methods:          make(map[string]*MethodDef),
		Events:           make(map[string]*ContainerEvent),
		StaticProperties: make(map[string]Value),
		StaticMethods:    make(map[string]*MethodDef),
	}
}

func (*ContainerDefinition) TypeName() string  { return "container_definition" }
func (c *ContainerDefinition) Display() string { return "<container " + c.Name + ">" }
func (*ContainerDefinition) Truthy() bool      { return true }
func (*ContainerDefinition) valueMarker()      {}

// ContainerInstance is an instantiated object of a ContainerDefinition
// (spec §3.1). Parent is a strongly shared reference: the parent
// instance lives as long as any child does, and is built once at
// instantiation time and never mutated (spec §4.5).
type ContainerInstance struct {
	ContainerType string
	Properties    map[string]Value
	Parent        *ContainerInstance
	Line          int
	Column        int
}

func NewContainerInstance(containerType string) *ContainerInstance {
	return &ContainerInstance{ContainerType: containerType, Properties: make(map[string]Value)}
}

func (*ContainerInstance) TypeName() string  { return "container_instance" }
func (c *ContainerInstance) Display() string { return "<" + c.ContainerType + " instance>" }
func (*ContainerInstance) Truthy() bool      { return true }
func (*ContainerInstance) valueMarker()      {}

// InterfaceDefinition declares required action signatures (spec §3.1).
type InterfaceDefinition struct {
	Name    string
	Extends []string
	Actions []string
}

func (*InterfaceDefinition) TypeName() string  { return "interface" }
func (i *InterfaceDefinition) Display() string { return "<interface " + i.Name + ">" }
func (*InterfaceDefinition) Truthy() bool      { return true }
func (*InterfaceDefinition) valueMarker()      {}
