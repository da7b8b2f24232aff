package value

import (
	"fmt"
	"weak"

	"github.com/wfl-lang/wflcore/core/ast"
)

// Function is a user-defined action/closure (spec §3.1). It never
// strongly owns its defining environment: Env is a weak back-reference,
// and invoking the function after that environment has been collected
// fails with EnvDropped (spec §4.4.5 step 2).
type Function struct {
	Name   string // "" for anonymous
	Params []string
	Body   []ast.Statement
	Env    weak.Pointer[Environment]
	Line   int
	Column int
}

func (*Function) TypeName() string { return "function" }
func (f *Function) Display() string {
	if f.Name != "" {
		return fmt.Sprintf("<function %s>", f.Name)
	}
	return "<anonymous function>"
}
func (*Function) Truthy() bool { return true }
func (*Function) valueMarker() {}

// NativeFunction is a builtin exposed to scripts (spec §3.1). Zero-arity
// natives may be auto-called when merely *referenced* as a value (spec
// §4.3) -- Arity records whether that applies.
type NativeFunction struct {
	Name  string
	Arity int // -1 means variadic
	Fn    func(args []Value) (Value, error)
}

func (*NativeFunction) TypeName() string  { return "native_function" }
func (n *NativeFunction) Display() string { return fmt.Sprintf("<native %s>", n.Name) }
func (*NativeFunction) Truthy() bool      { return true }
func (*NativeFunction) valueMarker()      {}
