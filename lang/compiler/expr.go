package compiler

import (
	"strconv"

	"github.com/mna/aster/lang/machine"
	"github.com/mna/aster/lang/token"
)

// precedence orders Aster's binary and postfix operators from loosest to
// tightest binding, the same ladder the reference grammar documents.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < <= > >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(p *Parser, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules [token.EndOfTokens]parseRule

func init() {
	set := func(t token.Token, prefix, infix parseFn, prec precedence) {
		rules[t] = parseRule{prefix: prefix, infix: infix, precedence: prec}
	}
	set(token.LPAREN, grouping, call, precCall)
	set(token.DOT, nil, dot, precCall)
	set(token.MINUS, unary, binary, precTerm)
	set(token.PLUS, nil, binary, precTerm)
	set(token.SLASH, nil, binary, precFactor)
	set(token.STAR, nil, binary, precFactor)
	set(token.BANG, unary, nil, precNone)
	set(token.BANG_EQ, nil, binary, precEquality)
	set(token.EQL, nil, binary, precEquality)
	set(token.GT, nil, binary, precComparison)
	set(token.GE, nil, binary, precComparison)
	set(token.LT, nil, binary, precComparison)
	set(token.LE, nil, binary, precComparison)
	set(token.IDENT, variable, nil, precNone)
	set(token.STRING, stringLiteral, nil, precNone)
	set(token.NUMBER, number, nil, precNone)
	set(token.AND, nil, and_, precAnd)
	set(token.OR, nil, or_, precOr)
	set(token.FALSE, literal, nil, precNone)
	set(token.TRUE, literal, nil, precNone)
	set(token.NIL, literal, nil, precNone)
	set(token.THIS, this_, nil, precNone)
	set(token.SUPER, super_, nil, precNone)
}

func (p *Parser) expression() { p.parsePrecedence(precAssignment) }

func (p *Parser) parsePrecedence(prec precedence) {
	p.advance()
	prefix := rules[p.prv.Token].prefix
	if prefix == nil {
		p.error("expect expression")
		return
	}
	canAssign := prec <= precAssignment
	prefix(p, canAssign)

	for prec <= rules[p.cur.Token].precedence {
		p.advance()
		infix := rules[p.prv.Token].infix
		infix(p, canAssign)
	}

	if canAssign && p.match(token.EQ) {
		p.error("invalid assignment target")
	}
}

func grouping(p *Parser, _ bool) {
	p.expression()
	p.consume(token.RPAREN, "expect ')' after expression")
}

func number(p *Parser, _ bool) {
	n, err := strconv.ParseFloat(p.prv.Text, 64)
	if err != nil {
		p.error("invalid number literal")
		return
	}
	p.emitConstant(machine.NumberValue(n))
}

// stringLiteral strips the surrounding quotes; Aster strings have no
// escape sequences (spec §4.1), so the raw interior bytes are interned
// as-is.
func stringLiteral(p *Parser, _ bool) {
	text := p.prv.Text
	p.emitConstant(machine.ObjValue(p.vm.InternString(text[1 : len(text)-1])))
}

func literal(p *Parser, _ bool) {
	switch p.prv.Token {
	case token.FALSE:
		p.emitOp(machine.FALSE)
	case token.TRUE:
		p.emitOp(machine.TRUE)
	case token.NIL:
		p.emitOp(machine.NIL)
	}
}

func unary(p *Parser, _ bool) {
	op := p.prv.Token
	p.parsePrecedence(precUnary)
	switch op {
	case token.BANG:
		p.emitOp(machine.NOT)
	case token.MINUS:
		p.emitOp(machine.NEGATE)
	}
}

func binary(p *Parser, _ bool) {
	op := p.prv.Token
	rule := rules[op]
	p.parsePrecedence(rule.precedence + 1)
	switch op {
	case token.BANG_EQ:
		p.emitOp(machine.EQUAL)
		p.emitOp(machine.NOT)
	case token.EQL:
		p.emitOp(machine.EQUAL)
	case token.GT:
		p.emitOp(machine.GREATER)
	case token.GE:
		p.emitOp(machine.LESS)
		p.emitOp(machine.NOT)
	case token.LT:
		p.emitOp(machine.LESS)
	case token.LE:
		p.emitOp(machine.GREATER)
		p.emitOp(machine.NOT)
	case token.PLUS:
		p.emitOp(machine.ADD)
	case token.MINUS:
		p.emitOp(machine.SUBTRACT)
	case token.STAR:
		p.emitOp(machine.MULTIPLY)
	case token.SLASH:
		p.emitOp(machine.DIVIDE)
	}
}

func and_(p *Parser, _ bool) {
	endJump := p.emitJump(machine.JUMP_IF_FALSE)
	p.emitOp(machine.POP)
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

func or_(p *Parser, _ bool) {
	elseJump := p.emitJump(machine.JUMP_IF_FALSE)
	endJump := p.emitJump(machine.JUMP)
	p.patchJump(elseJump)
	p.emitOp(machine.POP)
	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

func call(p *Parser, _ bool) {
	argCount := p.argumentList()
	p.emitOpByte(machine.CALL, argCount)
}

func (p *Parser) argumentList() byte {
	var count int
	if !p.check(token.RPAREN) {
		for {
			p.expression()
			if count == 255 {
				p.error("can't have more than 255 arguments")
			}
			count++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "expect ')' after arguments")
	return byte(count)
}

func dot(p *Parser, canAssign bool) {
	p.consume(token.IDENT, "expect property name after '.'")
	name := p.identifierConstant(p.prv.Text)

	switch {
	case canAssign && p.match(token.EQ):
		p.expression()
		p.emitOpByte(machine.SET_PROPERTY, name)
	case p.match(token.LPAREN):
		argCount := p.argumentList()
		p.emitOpByte(machine.INVOKE, name)
		p.emitByte(argCount)
	default:
		p.emitOpByte(machine.GET_PROPERTY, name)
	}
}

func variable(p *Parser, canAssign bool) {
	p.namedVariable(p.prv.Text, canAssign)
}

func (p *Parser) namedVariable(name string, canAssign bool) {
	var getOp, setOp machine.Opcode
	slot := p.resolveLocal(p.fr, name)
	var arg byte
	switch {
	case slot != -1:
		getOp, setOp = machine.GET_LOCAL, machine.SET_LOCAL
		arg = byte(slot)
	default:
		if uv := p.resolveUpvalue(p.fr, name); uv != -1 {
			getOp, setOp = machine.GET_UPVALUE, machine.SET_UPVALUE
			arg = byte(uv)
		} else {
			getOp, setOp = machine.GET_GLOBAL, machine.SET_GLOBAL
			arg = p.identifierConstant(name)
		}
	}

	if canAssign && p.match(token.EQ) {
		p.expression()
		p.emitOpByte(setOp, arg)
	} else {
		p.emitOpByte(getOp, arg)
	}
}

func this_(p *Parser, _ bool) {
	if p.cls == nil {
		p.error("can't use 'this' outside of a class")
		return
	}
	variable(p, false)
}

func super_(p *Parser, _ bool) {
	switch {
	case p.cls == nil:
		p.error("can't use 'super' outside of a class")
	case !p.cls.hasSuperclass:
		p.error("can't use 'super' in a class with no superclass")
	}

	p.consume(token.DOT, "expect '.' after 'super'")
	p.consume(token.IDENT, "expect superclass method name")
	name := p.identifierConstant(p.prv.Text)

	p.namedVariable("this", false)
	if p.match(token.LPAREN) {
		argCount := p.argumentList()
		p.namedVariable("super", false)
		p.emitOpByte(machine.SUPER_INVOKE, name)
		p.emitByte(argCount)
	} else {
		p.namedVariable("super", false)
		p.emitOpByte(machine.GET_SUPER, name)
	}
}
