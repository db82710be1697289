package vm

// ---------------------------------------------------------------------------
// Bool Primitives
// ---------------------------------------------------------------------------

// BoolClass is the class of true and false.
var BoolClass = NewNativeClass("Bool")

// Bool is a boolean value.
type Bool bool

// True and False are the two boolean values.
const (
	True  Bool = true
	False Bool = false
)

func (Bool) TypeName() string    { return "Bool" }
func (Bool) Class() *NativeClass { return BoolClass }

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

func init() {
	registerBoolPrimitives()
}

func registerBoolPrimitives() {
	c := BoolClass

	c.AddMethod0("isTrue", "Bool", func(_ *Interpreter, self Value) (Value, error) {
		return self.(Bool), nil
	})

	c.AddMethod0("isNotTrue", "Bool", func(_ *Interpreter, self Value) (Value, error) {
		return !self.(Bool), nil
	})

	c.AddMethod1("equals", Param("Object", "other"), "Bool", func(_ *Interpreter, self Value, other Value) (Value, error) {
		b, ok := other.(Bool)
		return Bool(ok && b == self.(Bool)), nil
	})

	c.AddMethod0("toString", "String", func(_ *Interpreter, self Value) (Value, error) {
		return String(self.(Bool).String()), nil
	})
}
