package runtime

import (
	"fmt"

	log "fortio.org/log"

	"veon/internal/span"
)

const initializer = "init"

// ClassVal represents a class declaration. It is immutable once declared.
type ClassVal struct {
	Name    string
	Methods map[string]*FuncVal
}

func (v *ClassVal) TypeName() string { return "class" }
func (v *ClassVal) String() string   { return fmt.Sprintf("<class %s>", v.Name) }
func (*ClassVal) value()             {}

// FindMethod returns the method with the given name, or nil.
func (v *ClassVal) FindMethod(name string) *FuncVal {
	return v.Methods[name]
}

// Arity is the arity of init, or 0 when the class has none.
func (v *ClassVal) Arity() int {
	if initFn := v.FindMethod(initializer); initFn != nil {
		return initFn.Arity()
	}
	return 0
}

// Call allocates a new instance and runs init on it. The value returned by
// init is discarded; the call always yields the instance.
func (v *ClassVal) Call(in *Interpreter, args []Value, at span.Span) (Value, error) {
	instance := &InstanceVal{Class: v, Fields: make(map[string]Value)}
	log.LogVf("new %s instance at %s", v.Name, at.Start)
	if initFn := v.FindMethod(initializer); initFn != nil {
		if _, err := instance.Bind(initFn).Call(in, args, at); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// InstanceVal represents an object created by calling a class.
// Fields are added on first assignment and never removed.
type InstanceVal struct {
	Class  *ClassVal
	Fields map[string]Value
}

func (v *InstanceVal) TypeName() string { return "instance" }
func (v *InstanceVal) String() string   { return fmt.Sprintf("<%s instance>", v.Class.Name) }
func (*InstanceVal) value()             {}

// Get looks up a property: methods of the class first, then fields.
func (v *InstanceVal) Get(name string) (Value, bool) {
	if m := v.Class.FindMethod(name); m != nil {
		return v.Bind(m), true
	}
	val, ok := v.Fields[name]
	return val, ok
}

// Set creates or overwrites a field.
func (v *InstanceVal) Set(name string, val Value) {
	v.Fields[name] = val
}

// Bind pairs a method with this instance as its receiver.
func (v *InstanceVal) Bind(m *FuncVal) *BoundMethod {
	return &BoundMethod{Receiver: v, Method: m}
}

// BoundMethod is a method value carrying its receiver.
type BoundMethod struct {
	Receiver *InstanceVal
	Method   *FuncVal
}

func (v *BoundMethod) TypeName() string { return "function" }
func (v *BoundMethod) String() string {
	return fmt.Sprintf("<fun %s.%s>", v.Receiver.Class.Name, v.Method.Name)
}
func (*BoundMethod) value() {}

func (v *BoundMethod) Arity() int { return v.Method.Arity() }

// Call runs the method in a frame holding this, itself a child of the
// method's closure. Calling init directly re-runs it and yields the receiver.
func (v *BoundMethod) Call(in *Interpreter, args []Value, at span.Span) (Value, error) {
	thisEnv := NewEnvironment(v.Method.Closure)
	thisEnv.Define("this", v.Receiver)
	result, err := in.callFunction(v.Method, thisEnv, args, at)
	if err != nil {
		return nil, err
	}
	if v.Method.Name == initializer {
		return v.Receiver, nil
	}
	return result, nil
}
