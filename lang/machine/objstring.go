package machine

import "github.com/dolthub/swiss"

// ObjString is an immutable, interned string. Two ObjStrings with equal
// content are always the same pointer: Equal compares Values by pointer
// identity, so interning is what makes string equality and string-keyed
// hashing cheap (spec invariant: every string value reachable anywhere in
// the machine is present in the intern table).
type ObjString struct {
	objHeader
	Chars string
}

func (s *ObjString) objType() ObjType { return ObjTypeString }
func (s *ObjString) String() string   { return s.Chars }

// Strings is the intern table mapping string content to its unique
// ObjString. It is shared by the compiler (which interns literals and
// identifier names as it compiles) and the VM (which interns strings
// produced at run time, e.g. by concatenation), exactly as spec invariant
// 2 requires: there is exactly one table, not one per subsystem.
type Strings struct {
	table *swiss.Map[string, *ObjString]
}

// NewStrings returns an empty intern table.
func NewStrings() *Strings {
	return &Strings{table: swiss.NewMap[string, *ObjString](64)}
}

// Intern returns the unique ObjString for s, allocating and registering a
// new one with vm's heap if none exists yet.
func (t *Strings) Intern(vm *VM, s string) *ObjString {
	if found, ok := t.table.Get(s); ok {
		return found
	}
	obj := &ObjString{Chars: s}
	vm.track(obj, len(s))

	// obj is reachable from nothing yet (not on the stack, not in the
	// table below): push it so it survives any allocation the table
	// insert triggers, the same push/pop bracketing clox's copyString
	// and takeString use to root a freshly allocated string.
	vm.push(ObjValue(obj))
	t.table.Put(s, obj)
	vm.pop()
	return obj
}

// remove drops s from the intern table. Called by the collector just
// before sweeping, for strings that turned out to be unreachable -- string
// objects are reclaimed like any other object, but the table entry that
// pointed at them must be cleared too or it would keep them "alive" by
// keeping an entry whose value is a dangling, unreachable pointer.
func (t *Strings) remove(s *ObjString) {
	t.table.Delete(s.Chars)
}
