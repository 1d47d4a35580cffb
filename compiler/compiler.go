// Package compiler implements a single-pass Pratt parser that compiles
// Lox source directly to bytecode, with no intermediate AST, the
// same shape as rami3l/golox's vm.Parser, adapted to this language
// version's smaller grammar (no control flow, functions or classes
// yet) and to this repository's one-byte opcode operands.
//
// Unlike both golox and the tree-walking interpreter's ast_compiler.go,
// parse errors are never recovered via panic/recover: they're
// accumulated with hashicorp/go-multierror while parsing continues
// past a synchronization point, so a single Compile call can report
// more than one mistake in the source.
package compiler

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"nilan/chunk"
	"nilan/debug"
	"nilan/gc"
	"nilan/lexer"
	"nilan/token"
	"nilan/value"
)

// maxLocals bounds how many locals can be live at once, dictated by
// the one-byte operand GetLocal/SetLocal use to address a stack slot.
const maxLocals = 256

// uninitialized marks a local whose declaration has been parsed but
// whose initializer hasn't finished compiling yet, reading it in its
// own initializer ("var a = a;") is a compile error.
const uninitialized = -1

type local struct {
	name  string
	depth int
}

// Compiler holds all state for one compilation: the token stream, the
// chunk being built, and the local-variable/scope bookkeeping needed
// to resolve identifiers without a symbol table.
type Compiler struct {
	lexer *lexer.Lexer

	previous token.Token
	current  token.Token

	chunk *chunk.Chunk

	locals     []local
	scopeDepth int

	// declaringGlobal names the global whose initializer is currently
	// being compiled, so a read of that same name before it's defined
	// (e.g. "var a = a;" at global scope) is a compile error rather
	// than a runtime undefined-variable lookup. Locals get the same
	// protection for free via their uninitialized depth marker;
	// globals have no such marker, hence this field.
	declaringGlobal       string
	declaringGlobalActive bool

	errors    *multierror.Error
	panicMode bool
}

// Compile compiles source into a Chunk ready for the VM to run. On a
// compile error it returns a nil Chunk and a non-nil error, possibly
// wrapping more than one diagnostic, via multierror, if more than one
// was found before synchronization gave up.
func Compile(source string) (*chunk.Chunk, error) {
	c := &Compiler{
		lexer: lexer.New(source),
		chunk: chunk.New(),
	}

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	c.emitReturn()

	if err := c.errors.ErrorOrNil(); err != nil {
		return nil, err
	}
	if debug.TraceEnabled {
		var buf bytes.Buffer
		debug.DisassembleChunk(&buf, c.chunk, "script")
		logrus.Debugln(buf.String())
	}
	return c.chunk, nil
}

/* token stream */

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lexer.ScanToken()
		if c.current.TokenType != token.ILLEGAL {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(tt token.TokenType) bool {
	return c.current.TokenType == tt
}

func (c *Compiler) match(tt token.TokenType) bool {
	if !c.check(tt) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(tt token.TokenType, message string) {
	if c.check(tt) {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

/* emitting bytecode */

func (c *Compiler) emitOp(op chunk.OpCode) {
	c.chunk.WriteOpcode(op, c.previous.Line)
}

func (c *Compiler) emitOpByte(op chunk.OpCode, operand byte) {
	h := c.chunk.WriteOpcode(op, c.previous.Line)
	h.WriteOperand(operand)
}

func (c *Compiler) emitReturn() {
	c.emitOp(chunk.Return)
}

func (c *Compiler) emitConstant(v value.Value) {
	idx, ok := c.chunk.AddConstant(v)
	if !ok {
		c.error("Too many constants")
		return
	}
	c.emitOpByte(chunk.Constant, byte(idx))
}

/* expressions: precedence climbing */

type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or (reserved, unused until control flow lands)
	precAnd                   // and (reserved)
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . () (reserved)
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules = map[token.TokenType]parseRule{
	token.LPA:          {prefix: (*Compiler).grouping},
	token.SUB:          {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: precTerm},
	token.ADD:          {infix: (*Compiler).binary, precedence: precTerm},
	token.DIV:          {infix: (*Compiler).binary, precedence: precFactor},
	token.MULT:         {infix: (*Compiler).binary, precedence: precFactor},
	token.BANG:         {prefix: (*Compiler).unary},
	token.NOT_EQUAL:    {infix: (*Compiler).binary, precedence: precEquality},
	token.EQUAL_EQUAL:  {infix: (*Compiler).binary, precedence: precEquality},
	token.LARGER:       {infix: (*Compiler).binary, precedence: precComparison},
	token.LARGER_EQUAL: {infix: (*Compiler).binary, precedence: precComparison},
	token.LESS:         {infix: (*Compiler).binary, precedence: precComparison},
	token.LESS_EQUAL:   {infix: (*Compiler).binary, precedence: precComparison},
	token.IDENTIFIER:   {prefix: (*Compiler).variable},
	token.STRING:       {prefix: (*Compiler).string_},
	token.NUMBER:       {prefix: (*Compiler).number},
	token.FALSE:        {prefix: (*Compiler).literal},
	token.TRUE:         {prefix: (*Compiler).literal},
	token.NULL:         {prefix: (*Compiler).literal},
}

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	rule := rules[c.previous.TokenType]
	if rule.prefix == nil {
		c.error("expect expression")
		return
	}
	canAssign := prec <= precAssignment
	rule.prefix(c, canAssign)

	for prec <= rules[c.current.TokenType].precedence {
		c.advance()
		infix := rules[c.previous.TokenType].infix
		if infix == nil {
			c.error("expect expression")
			return
		}
		infix(c, canAssign)
	}

	if canAssign && c.match(token.ASSIGN) {
		c.error("invalid assignment target")
	}
}

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *Compiler) number(_ bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("invalid number literal")
		return
	}
	c.emitConstant(value.Number(n))
}

func (c *Compiler) string_(_ bool) {
	lexeme := c.previous.Lexeme
	// Strip the surrounding quotes the lexer left in the lexeme.
	unquoted := lexeme[1 : len(lexeme)-1]
	c.emitConstant(value.String(gc.Store(unquoted)))
}

func (c *Compiler) literal(_ bool) {
	switch c.previous.TokenType {
	case token.FALSE:
		c.emitOp(chunk.False)
	case token.TRUE:
		c.emitOp(chunk.True)
	case token.NULL:
		c.emitOp(chunk.Nil)
	}
}

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(token.RPA, "expect ')' after expression")
}

func (c *Compiler) unary(_ bool) {
	opType := c.previous.TokenType
	c.parsePrecedence(precUnary)
	switch opType {
	case token.SUB:
		c.emitOp(chunk.Negate)
	case token.BANG:
		c.emitOp(chunk.Not)
	}
}

// binary lowers >=/<= to Less/Not and Greater/Not respectively, rather
// than giving them their own opcodes, matching golox's binary()
// exactly. This means NaN comparisons misbehave (NaN <= 1 evaluates to
// true) since Not(Greater(NaN, 1)) is true; that's a known, documented
// quirk inherited from the book, not patched here.
func (c *Compiler) binary(_ bool) {
	opType := c.previous.TokenType
	rule := rules[opType]
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case token.ADD:
		c.emitOp(chunk.Add)
	case token.SUB:
		c.emitOp(chunk.Subtract)
	case token.MULT:
		c.emitOp(chunk.Multiply)
	case token.DIV:
		c.emitOp(chunk.Divide)
	case token.EQUAL_EQUAL:
		c.emitOp(chunk.Equal)
	case token.NOT_EQUAL:
		c.emitOp(chunk.Equal)
		c.emitOp(chunk.Not)
	case token.LARGER:
		c.emitOp(chunk.Greater)
	case token.LARGER_EQUAL:
		c.emitOp(chunk.Less)
		c.emitOp(chunk.Not)
	case token.LESS:
		c.emitOp(chunk.Less)
	case token.LESS_EQUAL:
		c.emitOp(chunk.Greater)
		c.emitOp(chunk.Not)
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp chunk.OpCode
	var arg byte

	if slot, ok := c.resolveLocal(name.Lexeme); ok {
		getOp, setOp, arg = chunk.GetLocal, chunk.SetLocal, byte(slot)
	} else {
		if c.declaringGlobalActive && name.Lexeme == c.declaringGlobal {
			c.error(fmt.Sprintf("Cannot use `%s` in its own initializer", name.Lexeme))
		}
		getOp, setOp, arg = chunk.GetGlobal, chunk.SetGlobal, c.identifierConstant(name.Lexeme)
	}

	if canAssign && c.match(token.ASSIGN) {
		c.expression()
		c.emitOpByte(setOp, arg)
	} else {
		c.emitOpByte(getOp, arg)
	}
}

func (c *Compiler) identifierConstant(name string) byte {
	idx, ok := c.chunk.AddConstant(value.String(gc.Store(name)))
	if !ok {
		c.error("Too many constants")
	}
	return byte(idx)
}

func (c *Compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.name == name {
			if l.depth == uninitialized {
				c.error(fmt.Sprintf("Cannot use `%s` in its own initializer", name))
			}
			return i, true
		}
	}
	return 0, false
}

/* statements and declarations */

func (c *Compiler) declaration() {
	if c.match(token.VAR) {
		c.varDeclaration()
	} else {
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	global, isGlobal := c.parseVariable("expect variable name")
	name := c.previous.Lexeme

	if c.match(token.ASSIGN) {
		if isGlobal {
			c.declaringGlobal = name
			c.declaringGlobalActive = true
		}
		c.expression()
		c.declaringGlobalActive = false
	} else {
		c.emitOp(chunk.Nil)
	}
	c.consume(token.SEMICOLON, "expect ';' after variable declaration")

	c.defineVariable(global, isGlobal)
}

// parseVariable consumes the variable's name and, for a local,
// declares it immediately. The byte result is only meaningful when
// isGlobal is true, in which case it's the constant-pool index of the
// variable's interned name.
func (c *Compiler) parseVariable(message string) (global byte, isGlobal bool) {
	c.consume(token.IDENTIFIER, message)

	c.declareLocal()
	if c.scopeDepth > 0 {
		return 0, false
	}
	return c.identifierConstant(c.previous.Lexeme), true
}

func (c *Compiler) declareLocal() {
	if c.scopeDepth == 0 {
		return
	}
	name := c.previous.Lexeme
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth != uninitialized && l.depth < c.scopeDepth {
			break
		}
		if l.name == name {
			c.error("already a variable with this name in this scope")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name string) {
	if len(c.locals) >= maxLocals {
		c.error("Too many local variables live at once")
		return
	}
	c.locals = append(c.locals, local{name: name, depth: uninitialized})
}

func (c *Compiler) markInitialized() {
	if c.scopeDepth == 0 {
		return
	}
	c.locals[len(c.locals)-1].depth = c.scopeDepth
}

func (c *Compiler) defineVariable(global byte, isGlobal bool) {
	if !isGlobal {
		c.markInitialized()
		return
	}
	c.emitOpByte(chunk.DefineGlobal, global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.LCUR):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "expect ';' after value")
	c.emitOp(chunk.Print)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "expect ';' after expression")
	c.emitOp(chunk.Pop)
}

func (c *Compiler) block() {
	for !c.check(token.RCUR) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RCUR, "expect '}' after block")
}

func (c *Compiler) beginScope() {
	c.scopeDepth++
}

// endScope pops each local that belonged to the exiting scope
// individually, one Pop per local, rather than the AST compiler's
// bulk OP_SCOPE_EXIT, there are at most maxLocals of them, and a
// linear pop sequence needs no extra opcode or operand width.
func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emitOp(chunk.Pop)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

/* error handling */

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

func (c *Compiler) error(message string) {
	c.errorAt(c.previous, message)
}

func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true

	var where string
	switch tok.TokenType {
	case token.EOF:
		where = " at end"
	case token.ILLEGAL:
		where = ""
	default:
		where = fmt.Sprintf(" at '%s'", tok.Lexeme)
	}

	err := fmt.Errorf("[line %d] Error%s: %s", tok.Line, where, message)
	logrus.Debugln(err)
	c.errors = multierror.Append(c.errors, err)
}

// synchronize discards tokens until it reaches a statement boundary,
// so that one syntax error doesn't cascade into a wall of spurious
// follow-on errors.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.TokenType != token.EOF {
		if c.previous.TokenType == token.SEMICOLON {
			return
		}
		switch c.current.TokenType {
		case token.VAR, token.PRINT:
			return
		}
		c.advance()
	}
}
