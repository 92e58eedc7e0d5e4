package machine

import "fmt"

// Opcode is a single bytecode instruction. Every opcode is one byte;
// instructions that need operands encode them as one or more fixed-width
// bytes immediately following the opcode, never a variable-length
// encoding: Aster chunks are small enough that a single byte or a 16-bit
// big-endian operand never needs widening, and the compiler can patch an
// already-emitted jump operand in place once it knows the jump target.
type Opcode uint8

const ( //nolint:revive
	CONSTANT Opcode = iota //   - CONSTANT<const>   value

	NIL   // - NIL   nil
	TRUE  // - TRUE  true
	FALSE // - FALSE false

	POP // x POP -

	GET_LOCAL     //     - GET_LOCAL<slot>     value
	SET_LOCAL     // value SET_LOCAL<slot>     value
	GET_UPVALUE   //     - GET_UPVALUE<slot>   value
	SET_UPVALUE   // value SET_UPVALUE<slot>   value
	DEFINE_GLOBAL // value DEFINE_GLOBAL<name> -
	GET_GLOBAL    //     - GET_GLOBAL<name>    value
	SET_GLOBAL    // value SET_GLOBAL<name>    value

	GET_PROPERTY //          x GET_PROPERTY<name> value
	SET_PROPERTY //        x y SET_PROPERTY<name> value
	GET_SUPER    // this super GET_SUPER<name>    value   (method bound to `this`)

	EQUAL    // a b EQUAL    bool
	GREATER  // a b GREATER  bool
	LESS     // a b LESS     bool
	ADD      // a b ADD      a+b       (numbers or string concatenation)
	SUBTRACT // a b SUBTRACT a-b
	MULTIPLY // a b MULTIPLY a*b
	DIVIDE   // a b DIVIDE   a/b
	NOT      //   x NOT      !truthy(x)
	NEGATE   //   x NEGATE   -x

	PRINT // x PRINT -

	JUMP          //    - JUMP<offset>          -      unconditional, always forward
	JUMP_IF_FALSE // cond JUMP_IF_FALSE<offset> cond    leaves condition on the stack
	LOOP          //    - LOOP<offset>          -       unconditional, always backward

	CALL // fn arg1..argN CALL<argc> result

	INVOKE       // recv arg1..argN INVOKE<name><argc>       result  fused GET_PROPERTY+CALL
	SUPER_INVOKE // this arg1..argN super SUPER_INVOKE<name><argc> result  fused GET_SUPER+CALL

	CLOSURE       // - CLOSURE<func><upvalue pairs...> closure
	CLOSE_UPVALUE // x CLOSE_UPVALUE -

	RETURN // value RETURN - (value is nil for a function that falls off its end)

	CLASS   //       - CLASS<name>   class
	INHERIT // super sub INHERIT     super
	METHOD  //     fn METHOD<name>   -

	maxOpcode
)

var opcodeNames = [...]string{
	CONSTANT:      "constant",
	NIL:           "nil",
	TRUE:          "true",
	FALSE:         "false",
	POP:           "pop",
	GET_LOCAL:     "get_local",
	SET_LOCAL:     "set_local",
	GET_UPVALUE:   "get_upvalue",
	SET_UPVALUE:   "set_upvalue",
	DEFINE_GLOBAL: "define_global",
	GET_GLOBAL:    "get_global",
	SET_GLOBAL:    "set_global",
	GET_PROPERTY:  "get_property",
	SET_PROPERTY:  "set_property",
	GET_SUPER:     "get_super",
	EQUAL:         "equal",
	GREATER:       "greater",
	LESS:          "less",
	ADD:           "add",
	SUBTRACT:      "subtract",
	MULTIPLY:      "multiply",
	DIVIDE:        "divide",
	NOT:           "not",
	NEGATE:        "negate",
	PRINT:         "print",
	JUMP:          "jump",
	JUMP_IF_FALSE: "jump_if_false",
	LOOP:          "loop",
	CALL:          "call",
	INVOKE:        "invoke",
	SUPER_INVOKE:  "super_invoke",
	CLOSURE:       "closure",
	CLOSE_UPVALUE: "close_upvalue",
	RETURN:        "return",
	CLASS:         "class",
	INHERIT:       "inherit",
	METHOD:        "method",
}

func (op Opcode) String() string {
	if op < maxOpcode {
		if name := opcodeNames[op]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("illegal op (%d)", op)
}
