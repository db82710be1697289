package vm

// ---------------------------------------------------------------------------
// Object: the root protocol
// ---------------------------------------------------------------------------

// ObjectClass answers the protocol every value understands when neither
// its own class nor its ancestors define it.
var ObjectClass = NewNativeClass("Object")

// NilClass is the class of nil.
var NilClass = NewNativeClass("Nil")

// nilValue is the type of the single nil value.
type nilValue struct{}

// Nil is the nil value.
var Nil Value = nilValue{}

func (nilValue) TypeName() string    { return "Nil" }
func (nilValue) Class() *NativeClass { return NilClass }
func (nilValue) String() string      { return "nil" }

func init() {
	registerObjectPrimitives()
	registerNilPrimitives()
}

func registerObjectPrimitives() {
	c := ObjectClass

	c.AddMethod1("equals", Param("Object", "other"), "Bool", func(_ *Interpreter, self Value, other Value) (Value, error) {
		return Bool(self == other), nil
	})

	c.AddMethod0("isTrue", "Bool", func(_ *Interpreter, _ Value) (Value, error) {
		return True, nil
	})

	// isNotTrue goes through isTrue so overriding isTrue is enough.
	c.AddMethod0("isNotTrue", "Bool", func(in *Interpreter, self Value) (Value, error) {
		t, err := in.truthy(self)
		if err != nil {
			return nil, err
		}
		return Bool(!t), nil
	})

	c.AddMethod0("toString", "String", func(_ *Interpreter, self Value) (Value, error) {
		return String(describe(self)), nil
	})

	// A missing initializer is a no-op, so super.init() is always valid.
	c.AddMethod0("init", "Nil", func(_ *Interpreter, _ Value) (Value, error) {
		return Nil, nil
	})
}

func registerNilPrimitives() {
	c := NilClass

	c.AddMethod0("isTrue", "Bool", func(_ *Interpreter, _ Value) (Value, error) {
		return False, nil
	})

	c.AddMethod0("toString", "String", func(_ *Interpreter, _ Value) (Value, error) {
		return String("nil"), nil
	})
}
