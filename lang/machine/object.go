package machine

// ObjType discriminates the concrete heap object a Value of kind ValObj
// points at.
type ObjType uint8

const (
	ObjTypeString ObjType = iota
	ObjTypeFunction
	ObjTypeNative
	ObjTypeClosure
	ObjTypeUpvalue
	ObjTypeClass
	ObjTypeInstance
	ObjTypeBoundMethod
)

func (t ObjType) String() string {
	switch t {
	case ObjTypeString:
		return "string"
	case ObjTypeFunction:
		return "function"
	case ObjTypeNative:
		return "native function"
	case ObjTypeClosure:
		return "closure"
	case ObjTypeUpvalue:
		return "upvalue"
	case ObjTypeClass:
		return "class"
	case ObjTypeInstance:
		return "instance"
	case ObjTypeBoundMethod:
		return "bound method"
	default:
		return "invalid object"
	}
}

// Obj is the interface implemented by every heap-allocated Aster value:
// strings, functions, closures, upvalues, classes, instances and bound
// methods. Every concrete Obj embeds objHeader, which gives the garbage
// collector the intrusive allocation-list pointer and mark bit it needs
// without a type switch on every object it visits.
type Obj interface {
	objType() ObjType
	String() string

	getNext() Obj
	setNext(Obj)
	isMarked() bool
	mark()
	unmark()
}

// objHeader is embedded by every concrete Obj implementation. It is never
// used standalone.
type objHeader struct {
	next   Obj
	marked bool
}

func (h *objHeader) getNext() Obj   { return h.next }
func (h *objHeader) setNext(o Obj)  { h.next = o }
func (h *objHeader) isMarked() bool { return h.marked }
func (h *objHeader) mark()          { h.marked = true }
func (h *objHeader) unmark()        { h.marked = false }
