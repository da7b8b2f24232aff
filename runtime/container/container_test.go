package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfl-lang/wflcore/core/value"
)

// fakeRegistry is a minimal evaluator-free test double: Lookup resolves
// from a plain map, Run just appends the call to a log and returns a
// canned result, matching how an evaluator's Invoke would be exercised
// without pulling the evaluator package in (this package has none of
// its collaborators' source visible to it by design).
type fakeRegistry struct {
	defs map[string]*value.ContainerDefinition
	log  []string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{defs: make(map[string]*value.ContainerDefinition)}
}

func (f *fakeRegistry) lookup(name string) (*value.ContainerDefinition, bool) {
	d, ok := f.defs[name]
	return d, ok
}

func (f *fakeRegistry) run(recv *value.ContainerInstance, method *value.MethodDef, args []value.Value) (value.Value, error) {
	f.log = append(f.log, method.Name)
	return value.Text(method.Name + "-result"), nil
}

func (f *fakeRegistry) register(def *value.ContainerDefinition) {
	f.defs[def.Name] = def
}

func TestInstantiateUnionsParentAndOwnProperties(t *testing.T) {
	reg := newFakeRegistry()

	base := value.NewContainerDefinition("Animal")
	base.Properties["legs"] = value.Number(4)
	base.PropertyOrder = []string{"legs"}
	reg.register(base)

	dog := value.NewContainerDefinition("Dog")
	dog.Parent = "Animal"
	dog.Properties["name"] = value.Text("unnamed")
	dog.PropertyOrder = []string{"name"}
	reg.register(dog)

	rt := New(reg.lookup, reg.run)
	inst, err := rt.Instantiate(dog, nil, map[string]value.Value{"name": value.Text("Rex")})
	require.NoError(t, err)

	assert.Equal(t, "Dog", inst.ContainerType)
	assert.Equal(t, value.Number(4), inst.Properties["legs"])
	assert.Equal(t, value.Text("Rex"), inst.Properties["name"])
	require.NotNil(t, inst.Parent)
	assert.Equal(t, "Animal", inst.Parent.ContainerType)
}

func TestInstantiateCallsInitializeWhenArgsGiven(t *testing.T) {
	reg := newFakeRegistry()
	def := value.NewContainerDefinition("Counter")
	def.Methods["initialize"] = &value.MethodDef{Name: "initialize", Params: []string{"start"}}
	reg.register(def)

	rt := New(reg.lookup, reg.run)
	_, err := rt.Instantiate(def, []value.Value{value.Number(5)}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"initialize"}, reg.log)
}

func TestInstantiateWithArgsButNoInitializeErrors(t *testing.T) {
	reg := newFakeRegistry()
	def := value.NewContainerDefinition("Plain")
	reg.register(def)

	rt := New(reg.lookup, reg.run)
	_, err := rt.Instantiate(def, []value.Value{value.Number(1)}, nil)
	assert.Error(t, err)
}

func TestInstantiateDetectsCircularInheritance(t *testing.T) {
	reg := newFakeRegistry()
	a := value.NewContainerDefinition("A")
	a.Parent = "B"
	b := value.NewContainerDefinition("B")
	b.Parent = "A"
	reg.register(a)
	reg.register(b)

	rt := New(reg.lookup, reg.run)
	_, err := rt.Instantiate(a, nil, nil)
	assert.Error(t, err)
}

func TestCallMethodResolvesThroughParentChain(t *testing.T) {
	reg := newFakeRegistry()
	base := value.NewContainerDefinition("Animal")
	base.Methods["speak"] = &value.MethodDef{Name: "speak"}
	reg.register(base)

	dog := value.NewContainerDefinition("Dog")
	dog.Parent = "Animal"
	reg.register(dog)

	rt := New(reg.lookup, reg.run)
	inst := value.NewContainerInstance("Dog")
	result, err := rt.CallMethod(inst, "speak", nil)
	require.NoError(t, err)
	assert.Equal(t, value.Text("speak-result"), result)
}

func TestCallMethodUnknownMethodErrors(t *testing.T) {
	reg := newFakeRegistry()
	def := value.NewContainerDefinition("Dog")
	reg.register(def)

	rt := New(reg.lookup, reg.run)
	inst := value.NewContainerInstance("Dog")
	_, err := rt.CallMethod(inst, "bark", nil)
	assert.Error(t, err)
}

func TestCallStaticMethodDoesNotRequireInstance(t *testing.T) {
	reg := newFakeRegistry()
	def := value.NewContainerDefinition("Factory")
	def.StaticMethods["create"] = &value.MethodDef{Name: "create"}
	reg.register(def)

	rt := New(reg.lookup, reg.run)
	result, err := rt.CallStaticMethod(def, "create", nil)
	require.NoError(t, err)
	assert.Equal(t, value.Text("create-result"), result)
}

func TestCallParentMethodKeepsOriginalReceiver(t *testing.T) {
	reg := newFakeRegistry()
	base := value.NewContainerDefinition("Animal")
	base.Methods["speak"] = &value.MethodDef{Name: "speak"}
	reg.register(base)
	dog := value.NewContainerDefinition("Dog")
	dog.Parent = "Animal"
	reg.register(dog)

	rt := New(reg.lookup, reg.run)
	parentInst := value.NewContainerInstance("Animal")
	inst := value.NewContainerInstance("Dog")
	inst.Parent = parentInst

	var capturedRecv *value.ContainerInstance
	rt.Run = func(recv *value.ContainerInstance, method *value.MethodDef, args []value.Value) (value.Value, error) {
		capturedRecv = recv
		return value.Null, nil
	}

	_, err := rt.CallParentMethod(inst, "speak", nil)
	require.NoError(t, err)
	assert.Same(t, inst, capturedRecv)
}

func TestCallParentMethodWithoutParentErrors(t *testing.T) {
	reg := newFakeRegistry()
	rt := New(reg.lookup, reg.run)
	inst := value.NewContainerInstance("Dog")
	_, err := rt.CallParentMethod(inst, "speak", nil)
	assert.Error(t, err)
}

func TestAttachHandlerAndTriggerEventRunInRegistrationOrder(t *testing.T) {
	reg := newFakeRegistry()
	def := value.NewContainerDefinition("Dog")
	def.Events["barked"] = &value.ContainerEvent{Name: "barked"}
	reg.register(def)

	rt := New(reg.lookup, reg.run)
	ev, err := rt.AttachHandler("Dog", "barked", &value.EventHandler{})
	require.NoError(t, err)
	_, err = rt.AttachHandler("Dog", "barked", &value.EventHandler{})
	require.NoError(t, err)

	var order []int
	err = rt.TriggerEvent(ev, nil, func(h *value.EventHandler, args []value.Value) error {
		order = append(order, len(order))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, order)
}

func TestAttachHandlerUnknownEventErrors(t *testing.T) {
	reg := newFakeRegistry()
	def := value.NewContainerDefinition("Dog")
	reg.register(def)
	rt := New(reg.lookup, reg.run)

	_, err := rt.AttachHandler("Dog", "missing", &value.EventHandler{})
	assert.Error(t, err)
}

func TestTriggerEventRunsOnlyAttachedHandlers(t *testing.T) {
	ev := &value.ContainerEvent{Name: "barked"}
	rt := New(nil, nil)

	calls := 0
	err := rt.TriggerEvent(ev, nil, func(h *value.EventHandler, args []value.Value) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, calls)
}

func TestAttachHandlerSharesAcrossInstancesOfSameType(t *testing.T) {
	// Handlers live on the type's definition, not per-instance (the
	// documented source ambiguity resolved in the type's favor).
	reg := newFakeRegistry()
	def := value.NewContainerDefinition("Dog")
	def.Events["barked"] = &value.ContainerEvent{Name: "barked"}
	reg.register(def)
	rt := New(reg.lookup, reg.run)

	ev, err := rt.AttachHandler("Dog", "barked", &value.EventHandler{})
	require.NoError(t, err)

	calls := 0
	err = rt.TriggerEvent(ev, nil, func(h *value.EventHandler, args []value.Value) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
