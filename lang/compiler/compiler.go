// Package compiler implements Aster's single-pass compiler: source text
// goes straight from the scanner to bytecode with no separate parse tree
// in between. A Pratt parser handles expressions (precedence climbing
// over a table of prefix/infix parse functions keyed by token), and a
// small set of recursive-descent functions handle statements, emitting
// instructions directly into the machine.Chunk of the function currently
// being compiled.
//
// This mirrors the C reference implementation's compiler.c rather than
// the teacher's own multi-pass, CFG-based compiler: Aster has no AST
// package and no resolver pass (see spec.md's Non-goals), so the parsing
// idiom here -- advance/consume/error-synchronize, one emitX helper per
// instruction shape -- is new, but the package's function-oriented,
// lightly-commented style follows the teacher's own compiler package.
package compiler

import (
	"github.com/mna/aster/lang/machine"
	"github.com/mna/aster/lang/scanner"
	"github.com/mna/aster/lang/token"
)

// FunctionType distinguishes the kind of function currently being
// compiled, since scripts, plain functions, methods and initializers each
// have slightly different rules (an initializer implicitly returns
// `this`; a script can't use `return` at all; only methods and
// initializers see an implicit `this` local).
type FunctionType int

const (
	TypeScript FunctionType = iota
	TypeFunction
	TypeMethod
	TypeInitializer
)

// local is a compile-time-resolved local variable: its name, the scope
// depth it was declared at (-1 while its own initializer is still being
// compiled, guarding against `var x = x;`), and whether any nested
// function captures it as an upvalue.
type local struct {
	name       string
	depth      int
	isCaptured bool
}

// upvalueRef records how a compiled function reaches one free variable:
// either directly, as a local slot in the immediately enclosing function
// (isLocal true), or transitively, as one of the enclosing function's own
// upvalues (isLocal false).
type upvalueRef struct {
	index   int
	isLocal bool
}

// frame holds everything specific to the function currently being
// compiled: its output function, its locals and upvalues, and the
// enclosing frame to fall back to when a name can't be resolved locally.
type frame struct {
	enclosing *frame
	fn        *machine.ObjFunction
	fnType    FunctionType

	locals     []local
	upvalues   []upvalueRef
	scopeDepth int
}

// classState tracks the class currently being compiled, so method bodies
// know whether `super` is available.
type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// Parser drives the scanner and holds all compiler state for one
// top-level compilation: the current function frame, the class (if any)
// being compiled, and error recovery state.
type Parser struct {
	vm  *machine.VM
	sc  scanner.Scanner
	cur token.Lexeme
	prv token.Lexeme

	errs      token.ErrorList
	panicking bool

	fr  *frame
	cls *classState
}

// Compile compiles source into a top-level ObjFunction ready to be
// wrapped in a closure and run, allocating every function, string and
// constant it needs through vm so they are tracked by its heap from the
// moment they exist -- including while compilation is still in progress,
// which is why every frame is pushed as a GC root for its lifetime.
func Compile(vm *machine.VM, source string) (*machine.ObjFunction, error) {
	p := &Parser{vm: vm}
	p.sc.Init(source)

	p.beginFunction(TypeScript, "")
	p.advance()
	for !p.match(token.EOF) {
		p.declaration()
	}
	fn := p.endFunction()

	if err := p.errs.Err(); err != nil {
		return nil, err
	}
	return fn, nil
}

func (p *Parser) beginFunction(typ FunctionType, name string) {
	fn := p.vm.NewFunction()
	if name != "" {
		fn.Name = p.vm.InternString(name)
	}
	p.vm.PushCompilerRoot(fn)
	fr := &frame{enclosing: p.fr, fn: fn, fnType: typ}

	// Slot 0 is reserved: for methods and initializers it holds `this`; for
	// plain functions and the script it is never referenced by name.
	slotName := ""
	if typ == TypeMethod || typ == TypeInitializer {
		slotName = "this"
	}
	fr.locals = append(fr.locals, local{name: slotName, depth: 0})

	p.fr = fr
}

// endFunction finishes compiling the current frame's function and
// restores the enclosing frame.
func (p *Parser) endFunction() *machine.ObjFunction {
	p.emitReturn()
	fn := p.fr.fn
	p.vm.PopCompilerRoot()
	p.fr = p.fr.enclosing
	return fn
}

func (p *Parser) chunk() *machine.Chunk { return p.fr.fn.Chunk }

// --- token stream -----------------------------------------------------

func (p *Parser) advance() {
	p.prv = p.cur
	for {
		p.cur = p.sc.Scan()
		if p.cur.Token != token.ILLEGAL {
			break
		}
		p.errorAtCurrent(p.cur.Text)
	}
}

func (p *Parser) check(t token.Token) bool { return p.cur.Token == t }

func (p *Parser) match(t token.Token) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) consume(t token.Token, msg string) {
	if p.cur.Token == t {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

func (p *Parser) errorAtCurrent(msg string) { p.errorAt(p.cur, msg) }
func (p *Parser) error(msg string)          { p.errorAt(p.prv, msg) }

func (p *Parser) errorAt(lex token.Lexeme, msg string) {
	if p.panicking {
		return
	}
	p.panicking = true
	e := &token.CompileError{Line: lex.Line, Message: msg}
	if lex.Token == token.EOF {
		e.AtEnd = true
	} else {
		e.Where = lex.Text
	}
	p.errs.Add(e)
}

// synchronize discards tokens until it reaches a plausible statement
// boundary, so one syntax error is reported instead of a cascade.
func (p *Parser) synchronize() {
	p.panicking = false
	for p.cur.Token != token.EOF {
		if p.prv.Token == token.SEMI {
			return
		}
		switch p.cur.Token {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}

// --- bytecode emission --------------------------------------------------

func (p *Parser) emitByte(b byte)       { p.chunk().Write(b, p.prv.Line) }
func (p *Parser) emitOp(op machine.Opcode) { p.chunk().WriteOp(op, p.prv.Line) }

func (p *Parser) emitOpByte(op machine.Opcode, b byte) {
	p.emitOp(op)
	p.emitByte(b)
}

func (p *Parser) emitReturn() {
	if p.fr.fnType == TypeInitializer {
		p.emitOpByte(machine.GET_LOCAL, 0)
	} else {
		p.emitOp(machine.NIL)
	}
	p.emitOp(machine.RETURN)
}

func (p *Parser) emitConstant(v machine.Value) {
	p.emitOpByte(machine.CONSTANT, p.makeConstant(v))
}

func (p *Parser) makeConstant(v machine.Value) byte {
	idx := p.chunk().AddConstant(v)
	if idx < 0 || idx > 255 {
		p.error("too many constants in one chunk")
		return 0
	}
	return byte(idx)
}

// identifierConstant interns name and adds it to the constant pool, for
// opcodes that name a global, a field, or a method by string rather than
// by local slot.
func (p *Parser) identifierConstant(name string) byte {
	return p.makeConstant(machine.ObjValue(p.vm.InternString(name)))
}

func (p *Parser) emitJump(op machine.Opcode) int {
	p.emitOp(op)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return len(p.chunk().Code) - 2
}

func (p *Parser) patchJump(offset int) {
	jump := len(p.chunk().Code) - offset - 2
	if jump > 0xffff {
		p.error("too much code to jump over")
		return
	}
	p.chunk().Code[offset] = byte(jump >> 8)
	p.chunk().Code[offset+1] = byte(jump)
}

func (p *Parser) emitLoop(loopStart int) {
	p.emitOp(machine.LOOP)
	offset := len(p.chunk().Code) - loopStart + 2
	if offset > 0xffff {
		p.error("loop body too large")
	}
	p.emitByte(byte(offset >> 8))
	p.emitByte(byte(offset))
}

// --- scopes and locals ---------------------------------------------------

func (p *Parser) beginScope() { p.fr.scopeDepth++ }

func (p *Parser) endScope() {
	p.fr.scopeDepth--
	fr := p.fr
	for len(fr.locals) > 0 && fr.locals[len(fr.locals)-1].depth > fr.scopeDepth {
		if fr.locals[len(fr.locals)-1].isCaptured {
			p.emitOp(machine.CLOSE_UPVALUE)
		} else {
			p.emitOp(machine.POP)
		}
		fr.locals = fr.locals[:len(fr.locals)-1]
	}
}

func (p *Parser) declareVariable(name string) {
	if p.fr.scopeDepth == 0 {
		return
	}
	for i := len(p.fr.locals) - 1; i >= 0; i-- {
		l := p.fr.locals[i]
		if l.depth != -1 && l.depth < p.fr.scopeDepth {
			break
		}
		if l.name == name {
			p.error("variable with this name already declared in this scope")
		}
	}
	p.addLocal(name)
}

func (p *Parser) addLocal(name string) {
	if len(p.fr.locals) >= 256 {
		p.error("too many local variables in function")
		return
	}
	p.fr.locals = append(p.fr.locals, local{name: name, depth: -1})
}

func (p *Parser) markInitialized() {
	if p.fr.scopeDepth == 0 {
		return
	}
	p.fr.locals[len(p.fr.locals)-1].depth = p.fr.scopeDepth
}

// parseVariable consumes an identifier, declares it as a local if inside
// a scope, and otherwise returns the constant-pool index of its name for
// a later DEFINE_GLOBAL.
func (p *Parser) parseVariable(errMsg string) byte {
	p.consume(token.IDENT, errMsg)
	name := p.prv.Text
	p.declareVariable(name)
	if p.fr.scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(name)
}

func (p *Parser) defineVariable(global byte) {
	if p.fr.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitOpByte(machine.DEFINE_GLOBAL, global)
}

func (p *Parser) resolveLocal(fr *frame, name string) int {
	for i := len(fr.locals) - 1; i >= 0; i-- {
		if fr.locals[i].name == name {
			if fr.locals[i].depth == -1 {
				p.error("can't read local variable in its own initializer")
			}
			return i
		}
	}
	return -1
}

func (p *Parser) resolveUpvalue(fr *frame, name string) int {
	if fr.enclosing == nil {
		return -1
	}
	if slot := p.resolveLocal(fr.enclosing, name); slot != -1 {
		fr.enclosing.locals[slot].isCaptured = true
		return p.addUpvalue(fr, slot, true)
	}
	if slot := p.resolveUpvalue(fr.enclosing, name); slot != -1 {
		return p.addUpvalue(fr, slot, false)
	}
	return -1
}

func (p *Parser) addUpvalue(fr *frame, index int, isLocal bool) int {
	for i, uv := range fr.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fr.upvalues) >= 256 {
		p.error("too many closure variables in function")
		return 0
	}
	fr.upvalues = append(fr.upvalues, upvalueRef{index: index, isLocal: isLocal})
	fr.fn.UpvalueCount = len(fr.upvalues)
	return len(fr.upvalues) - 1
}
