package compiler

import (
	"github.com/mna/aster/lang/machine"
	"github.com/mna/aster/lang/token"
)

func (p *Parser) declaration() {
	switch {
	case p.match(token.CLASS):
		p.classDeclaration()
	case p.match(token.FUN):
		p.funDeclaration()
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.statement()
	}
	if p.panicking {
		p.synchronize()
	}
}

func (p *Parser) statement() {
	switch {
	case p.match(token.PRINT):
		p.printStatement()
	case p.match(token.FOR):
		p.forStatement()
	case p.match(token.IF):
		p.ifStatement()
	case p.match(token.RETURN):
		p.returnStatement()
	case p.match(token.WHILE):
		p.whileStatement()
	case p.match(token.LBRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *Parser) block() {
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RBRACE, "expect '}' after block")
}

func (p *Parser) printStatement() {
	p.expression()
	p.consume(token.SEMI, "expect ';' after value")
	p.emitOp(machine.PRINT)
}

func (p *Parser) expressionStatement() {
	p.expression()
	p.consume(token.SEMI, "expect ';' after expression")
	p.emitOp(machine.POP)
}

func (p *Parser) varDeclaration() {
	global := p.parseVariable("expect variable name")
	if p.match(token.EQ) {
		p.expression()
	} else {
		p.emitOp(machine.NIL)
	}
	p.consume(token.SEMI, "expect ';' after variable declaration")
	p.defineVariable(global)
}

func (p *Parser) funDeclaration() {
	global := p.parseVariable("expect function name")
	p.markInitialized()
	p.function(TypeFunction)
	p.defineVariable(global)
}

// function compiles a function's parameter list and body; the caller has
// already consumed its name.
func (p *Parser) function(typ FunctionType) {
	name := p.prv.Text
	p.beginFunction(typ, name)
	p.beginScope()

	p.consume(token.LPAREN, "expect '(' after function name")
	if !p.check(token.RPAREN) {
		for {
			p.fr.fn.Arity++
			if p.fr.fn.Arity > 255 {
				p.errorAtCurrent("can't have more than 255 parameters")
			}
			constant := p.parseVariable("expect parameter name")
			p.defineVariable(constant)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "expect ')' after parameters")
	p.consume(token.LBRACE, "expect '{' before function body")
	p.block()

	upvalues := p.fr.upvalues
	fn := p.endFunction()
	p.emitOpByte(machine.CLOSURE, p.makeConstant(machine.ObjValue(fn)))
	for _, uv := range upvalues {
		if uv.isLocal {
			p.emitByte(1)
		} else {
			p.emitByte(0)
		}
		p.emitByte(byte(uv.index))
	}
}

func (p *Parser) classDeclaration() {
	p.consume(token.IDENT, "expect class name")
	name := p.prv.Text
	nameConstant := p.identifierConstant(name)
	p.declareVariable(name)

	p.emitOpByte(machine.CLASS, nameConstant)
	p.defineVariable(nameConstant)

	cls := &classState{enclosing: p.cls}
	p.cls = cls

	if p.match(token.LT) {
		p.consume(token.IDENT, "expect superclass name")
		p.namedVariable(p.prv.Text, false)
		if p.prv.Text == name {
			p.error("a class can't inherit from itself")
		}

		p.beginScope()
		p.addLocal("super")
		p.markInitialized()

		p.namedVariable(name, false)
		p.emitOp(machine.INHERIT)
		cls.hasSuperclass = true
	}

	p.namedVariable(name, false)
	p.consume(token.LBRACE, "expect '{' before class body")
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.method()
	}
	p.consume(token.RBRACE, "expect '}' after class body")
	p.emitOp(machine.POP) // the class itself, pushed by namedVariable above

	if cls.hasSuperclass {
		p.endScope()
	}
	p.cls = cls.enclosing
}

func (p *Parser) method() {
	p.consume(token.IDENT, "expect method name")
	name := p.prv.Text
	constant := p.identifierConstant(name)

	typ := TypeMethod
	if name == "init" {
		typ = TypeInitializer
	}
	p.function(typ)
	p.emitOpByte(machine.METHOD, constant)
}

func (p *Parser) ifStatement() {
	p.consume(token.LPAREN, "expect '(' after 'if'")
	p.expression()
	p.consume(token.RPAREN, "expect ')' after condition")

	thenJump := p.emitJump(machine.JUMP_IF_FALSE)
	p.emitOp(machine.POP)
	p.statement()

	elseJump := p.emitJump(machine.JUMP)
	p.patchJump(thenJump)
	p.emitOp(machine.POP)

	if p.match(token.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *Parser) whileStatement() {
	loopStart := len(p.chunk().Code)
	p.consume(token.LPAREN, "expect '(' after 'while'")
	p.expression()
	p.consume(token.RPAREN, "expect ')' after condition")

	exitJump := p.emitJump(machine.JUMP_IF_FALSE)
	p.emitOp(machine.POP)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(machine.POP)
}

func (p *Parser) forStatement() {
	p.beginScope()
	p.consume(token.LPAREN, "expect '(' after 'for'")
	switch {
	case p.match(token.SEMI):
		// no initializer
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := len(p.chunk().Code)
	exitJump := -1
	if !p.match(token.SEMI) {
		p.expression()
		p.consume(token.SEMI, "expect ';' after loop condition")
		exitJump = p.emitJump(machine.JUMP_IF_FALSE)
		p.emitOp(machine.POP)
	}

	if !p.match(token.RPAREN) {
		bodyJump := p.emitJump(machine.JUMP)
		incrementStart := len(p.chunk().Code)
		p.expression()
		p.emitOp(machine.POP)
		p.consume(token.RPAREN, "expect ')' after for clauses")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(machine.POP)
	}
	p.endScope()
}

func (p *Parser) returnStatement() {
	if p.fr.fnType == TypeScript {
		p.error("can't return from top-level code")
	}
	if p.match(token.SEMI) {
		p.emitReturn()
		return
	}
	if p.fr.fnType == TypeInitializer {
		p.error("can't return a value from an initializer")
	}
	p.expression()
	p.consume(token.SEMI, "expect ';' after return value")
	p.emitOp(machine.RETURN)
}
