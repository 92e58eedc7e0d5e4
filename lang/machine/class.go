package machine

import (
	"fmt"

	"github.com/dolthub/swiss"
)

// ObjClass is a class declaration's runtime counterpart: a name and a
// table of method closures, looked up by name each time a method is
// accessed or invoked (spec §4.3, classes/inheritance). Methods is a swiss.Map rather
// than a Go map for the same reason the globals table and every
// instance's field table are: a single open-addressed hash map
// implementation backs every name-to-Value table in the machine.
type ObjClass struct {
	objHeader
	Name    *ObjString
	Methods *swiss.Map[string, *ObjClosure]
}

func (c *ObjClass) objType() ObjType { return ObjTypeClass }
func (c *ObjClass) String() string   { return fmt.Sprintf("<class %s>", c.Name.Chars) }

// ObjInstance is an instance of a class: the class it was constructed
// from, and its own field table. Fields are created lazily by assignment;
// reading a never-assigned field is a runtime error (spec §4.3).
type ObjInstance struct {
	objHeader
	Class  *ObjClass
	Fields *swiss.Map[string, Value]
}

func (o *ObjInstance) objType() ObjType { return ObjTypeInstance }
func (o *ObjInstance) String() string   { return fmt.Sprintf("<%s instance>", o.Class.Name.Chars) }

// ObjBoundMethod pairs a receiver with one of its class's methods, the
// value produced by a `x.method` property access where method resolves to
// a function rather than a field. Calling it implicitly binds `this` to
// Receiver (spec §4.3).
type ObjBoundMethod struct {
	objHeader
	Receiver Value
	Method   *ObjClosure
}

func (b *ObjBoundMethod) objType() ObjType { return ObjTypeBoundMethod }
func (b *ObjBoundMethod) String() string {
	if b.Method.Function.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", b.Method.Function.Name.Chars)
}
