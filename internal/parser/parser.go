// Package parser is a hand-written recursive-descent parser turning a
// lexer.Token stream into a parsetree.Program. Later passes never see
// tokens directly; they consume only the parsetree contract this package
// produces.
package parser

import (
	"github.com/fenlang/fen/internal/diag"
	"github.com/fenlang/fen/internal/lexer"
	"github.com/fenlang/fen/internal/parsetree"
)

// Parser holds the full token buffer for a single source file and a cursor
// into it. Tokenizing eagerly (rather than streaming) lets call-expression
// and new-expression parsing save and restore position freely.
type Parser struct {
	toks []lexer.Token
	pos  int
	src  *diag.Source
}

// Parse tokenizes src and parses it into a parsetree.Program. It returns the
// first parse error encountered; the parser does not attempt recovery past
// that point.
func Parse(source string, fileName string) (*parsetree.Program, error) {
	l := lexer.New(source)
	var toks []lexer.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == lexer.EOF {
			break
		}
	}
	p := &Parser{toks: toks, src: &diag.Source{File: fileName, Text: source}}
	return p.parseProgram()
}

func (p *Parser) cur() lexer.Token           { return p.toks[p.pos] }
func (p *Parser) at(tt lexer.TokenType) bool { return p.cur().Type == tt }

// peekType looks ahead without consuming; out-of-range offsets report EOF.
func (p *Parser) peekType(offset int) lexer.TokenType {
	i := p.pos + offset
	if i >= len(p.toks) {
		return lexer.EOF
	}
	return p.toks[i].Type
}

func (p *Parser) advance() lexer.Token {
	tok := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) match(tt lexer.TokenType) (lexer.Token, bool) {
	if p.at(tt) {
		return p.advance(), true
	}
	return lexer.Token{}, false
}

func (p *Parser) expect(tt lexer.TokenType, what string) (lexer.Token, error) {
	if p.at(tt) {
		return p.advance(), nil
	}
	tok := p.cur()
	return tok, p.errorf(tok.Span, "expected %s, found %q", what, tok.Literal)
}

func (p *Parser) errorf(span diag.Span, format string, args ...any) error {
	return diag.New("ParseError", span, p.src, format, args...)
}

func dspan(a, b diag.Span) diag.Span {
	return diag.Span{Start: a.Start, End: b.End, Line: a.Line, Col: a.Col}
}

func (p *Parser) parseProgram() (*parsetree.Program, error) {
	var items []parsetree.Item
	for !p.at(lexer.EOF) {
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return &parsetree.Program{Items: items}, nil
}

func (p *Parser) parseItem() (parsetree.Item, error) {
	switch {
	case p.at(lexer.IMPORT):
		return p.parseImport()
	case p.at(lexer.ENUM):
		return p.parseEnum()
	case p.at(lexer.CLASS), p.at(lexer.STRUCT):
		return p.parseClass()
	default:
		return p.parseFuncDecl(true)
	}
}

func (p *Parser) parseImport() (parsetree.Item, error) {
	start := p.advance() // "import"
	tok, err := p.expect(lexer.STRING, "import path string")
	if err != nil {
		return nil, err
	}
	end, err := p.expect(lexer.SEMI, "';'")
	if err != nil {
		return nil, err
	}
	decl := &parsetree.ImportDecl{Path: tok.Literal}
	decl.NodeSpan = dspan(start.Span, end.Span)
	return decl, nil
}

func (p *Parser) parseEnum() (parsetree.Item, error) {
	start := p.advance() // "enum"
	name, err := p.expect(lexer.IDENT, "enum name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBRACE, "'{'"); err != nil {
		return nil, err
	}
	var members []parsetree.EnumMember
	for !p.at(lexer.RBRACE) {
		memberName, err := p.expect(lexer.IDENT, "enum member name")
		if err != nil {
			return nil, err
		}
		member := parsetree.EnumMember{Name: memberName.Literal, NameSpan: memberName.Span}
		if _, ok := p.match(lexer.ASSIGN); ok {
			valTok, err := p.expect(lexer.INT, "enum member value")
			if err != nil {
				return nil, err
			}
			v := parseInt64(valTok.Literal)
			member.Value = &v
		}
		members = append(members, member)
		if _, ok := p.match(lexer.COMMA); !ok {
			break
		}
	}
	end, err := p.expect(lexer.RBRACE, "'}'")
	if err != nil {
		return nil, err
	}
	decl := &parsetree.EnumDecl{
		Name:     name.Literal,
		NameSpan: name.Span,
		Members:  members,
	}
	decl.NodeSpan = dspan(start.Span, end.Span)
	return decl, nil
}

// parseVisibility consumes an optional leading "public"/"private" modifier
// applying to the next declaration. Default is Public.
func (p *Parser) parseVisibility() parsetree.Visibility {
	if _, ok := p.match(lexer.PUBLIC); ok {
		return parsetree.VisibilityPublic
	}
	if _, ok := p.match(lexer.PRIVATE); ok {
		return parsetree.VisibilityPrivate
	}
	return parsetree.VisibilityPublic
}

func (p *Parser) parseGenerics() ([]string, error) {
	if _, ok := p.match(lexer.LT); !ok {
		return nil, nil
	}
	var names []string
	for {
		tok, err := p.expect(lexer.IDENT, "generic parameter name")
		if err != nil {
			return nil, err
		}
		names = append(names, tok.Literal)
		if _, ok := p.match(lexer.COMMA); ok {
			continue
		}
		break
	}
	if _, err := p.expect(lexer.GT, "'>'"); err != nil {
		return nil, err
	}
	return names, nil
}

func (p *Parser) parseParams() ([]parsetree.Param, error) {
	if _, err := p.expect(lexer.LPAREN, "'('"); err != nil {
		return nil, err
	}
	var params []parsetree.Param
	for !p.at(lexer.RPAREN) {
		if selfTok, ok := p.match(lexer.SELF); ok {
			params = append(params, parsetree.Param{Name: "self", NameSpan: selfTok.Span})
		} else {
			nameTok, err := p.expect(lexer.IDENT, "parameter name")
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.COLON, "':'"); err != nil {
				return nil, err
			}
			ty, err := p.parseType()
			if err != nil {
				return nil, err
			}
			params = append(params, parsetree.Param{Name: nameTok.Literal, NameSpan: nameTok.Span, Type: ty})
		}
		if _, ok := p.match(lexer.COMMA); ok {
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
		return nil, err
	}
	return params, nil
}

// parseFuncDecl parses a top-level function, which may be "extern" and/or
// carry a leading visibility modifier.
func (p *Parser) parseFuncDecl(topLevel bool) (*parsetree.FuncDecl, error) {
	startSpan := p.cur().Span
	vis := p.parseVisibility()

	isExternal := false
	if _, ok := p.match(lexer.EXTERN); ok {
		isExternal = true
	}

	if _, err := p.expect(lexer.FUNC, "'func'"); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.IDENT, "function name")
	if err != nil {
		return nil, err
	}
	generics, err := p.parseGenerics()
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.ARROW, "'->'"); err != nil {
		return nil, err
	}
	retTy, err := p.parseType()
	if err != nil {
		return nil, err
	}

	decl := &parsetree.FuncDecl{
		Name:       name.Literal,
		NameSpan:   name.Span,
		Generics:   generics,
		Params:     params,
		Return:     retTy,
		IsExternal: isExternal,
		Visibility: vis,
	}

	if isExternal {
		end, err := p.expect(lexer.SEMI, "';'")
		if err != nil {
			return nil, err
		}
		decl.NodeSpan = dspan(startSpan, end.Span)
		return decl, nil
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	decl.Body = body
	decl.NodeSpan = dspan(startSpan, body.Span())
	return decl, nil
}

func (p *Parser) parseClass() (parsetree.Item, error) {
	start := p.advance() // "class" or "struct"
	isStruct := p.toks[p.pos-1].Type == lexer.STRUCT
	name, err := p.expect(lexer.IDENT, "class name")
	if err != nil {
		return nil, err
	}
	generics, err := p.parseGenerics()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBRACE, "'{'"); err != nil {
		return nil, err
	}

	decl := &parsetree.ClassDecl{
		Name:     name.Literal,
		NameSpan: name.Span,
		Generics: generics,
		IsStruct: isStruct,
	}

	currentVis := parsetree.VisibilityPublic
	for !p.at(lexer.RBRACE) {
		// Section label: "public:" / "private:".
		if (p.at(lexer.PUBLIC) || p.at(lexer.PRIVATE)) && p.peekType(1) == lexer.COLON {
			vis := p.parseVisibility()
			if _, err := p.expect(lexer.COLON, "':'"); err != nil {
				return nil, err
			}
			currentVis = vis
			continue
		}

		switch {
		case p.at(lexer.CONST) && p.peekType(1) != lexer.FUNC:
			c, err := p.parseConstStmt()
			if err != nil {
				return nil, err
			}
			decl.Constants = append(decl.Constants, *c)

		case p.at(lexer.OPERATOR):
			op, err := p.parseOperatorOverload()
			if err != nil {
				return nil, err
			}
			decl.Operators = append(decl.Operators, *op)

		case p.at(lexer.STATIC), p.at(lexer.CONST), p.at(lexer.FUNC):
			modifier := parsetree.ModifierInstance
			switch {
			case p.at(lexer.STATIC):
				p.advance()
				modifier = parsetree.ModifierStatic
			case p.at(lexer.CONST):
				p.advance()
				modifier = parsetree.ModifierConst
			}
			if _, err := p.expect(lexer.FUNC, "'func'"); err != nil {
				return nil, err
			}

			switch {
			case p.at(lexer.NEW):
				ctorStart := p.toks[p.pos-1].Span
				p.advance() // "new"
				params, err := p.parseParams()
				if err != nil {
					return nil, err
				}
				body, err := p.parseBlock()
				if err != nil {
					return nil, err
				}
				if decl.Constructor != nil {
					return nil, p.errorf(body.Span(), "class %q already has a constructor", decl.Name)
				}
				ctor := parsetree.FuncDecl{
					Name:   "new",
					Params: params,
					Body:   body,
				}
				ctor.NodeSpan = dspan(ctorStart, body.Span())
				decl.Constructor = &ctor

			case p.at(lexer.DELETE):
				dtorStart := p.toks[p.pos-1].Span
				p.advance() // "delete"
				if _, err := p.expect(lexer.LPAREN, "'('"); err != nil {
					return nil, err
				}
				if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
					return nil, err
				}
				body, err := p.parseBlock()
				if err != nil {
					return nil, err
				}
				if decl.Destructor != nil {
					return nil, p.errorf(body.Span(), "class %q already has a destructor", decl.Name)
				}
				dtor := parsetree.FuncDecl{
					Name:   "delete",
					Params: nil,
					Body:   body,
				}
				dtor.NodeSpan = dspan(dtorStart, body.Span())
				decl.Destructor = &dtor

			default:
				methodName, err := p.expect(lexer.IDENT, "method name")
				if err != nil {
					return nil, err
				}
				params, err := p.parseParams()
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(lexer.ARROW, "'->'"); err != nil {
					return nil, err
				}
				retTy, err := p.parseType()
				if err != nil {
					return nil, err
				}
				body, err := p.parseBlock()
				if err != nil {
					return nil, err
				}
				fd := parsetree.FuncDecl{
					Name:       methodName.Literal,
					NameSpan:   methodName.Span,
					Params:     params,
					Return:     retTy,
					Body:       body,
					Visibility: currentVis,
				}
				fd.NodeSpan = dspan(methodName.Span, body.Span())
				decl.Methods = append(decl.Methods, parsetree.Method{FuncDecl: fd, Modifier: modifier})
			}

		default:
			fieldName, err := p.expect(lexer.IDENT, "field name")
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.COLON, "':'"); err != nil {
				return nil, err
			}
			ty, err := p.parseType()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.SEMI, "';'"); err != nil {
				return nil, err
			}
			decl.Fields = append(decl.Fields, parsetree.Field{
				Name:       fieldName.Literal,
				NameSpan:   fieldName.Span,
				Type:       ty,
				Visibility: currentVis,
			})
		}
	}

	end, err := p.expect(lexer.RBRACE, "'}'")
	if err != nil {
		return nil, err
	}
	decl.NodeSpan = dspan(start.Span, end.Span)
	return decl, nil
}

var operatorTokens = map[lexer.TokenType]string{
	lexer.PLUS: "+", lexer.MINUS: "-", lexer.STAR: "*", lexer.SLASH: "/", lexer.PERCENT: "%",
	lexer.EQ: "==", lexer.NEQ: "!=", lexer.LT: "<", lexer.LTE: "<=", lexer.GT: ">", lexer.GTE: ">=",
	lexer.AMPAMP: "&&", lexer.PIPEPIPE: "||",
}

func (p *Parser) parseOperatorOverload() (*parsetree.OperatorOverload, error) {
	start := p.advance() // "operator"
	opTok := p.advance()
	opStr, ok := operatorTokens[opTok.Type]
	if !ok {
		return nil, p.errorf(opTok.Span, "unsupported operator overload symbol %q", opTok.Literal)
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.ARROW, "'->'"); err != nil {
		return nil, err
	}
	retTy, err := p.parseType()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	fn := parsetree.FuncDecl{
		Name:   "operator" + opStr,
		Params: params,
		Return: retTy,
		Body:   body,
	}
	fn.NodeSpan = dspan(start.Span, body.Span())
	op := &parsetree.OperatorOverload{Operator: opStr, Func: fn}
	op.NodeSpan = dspan(start.Span, body.Span())
	return op, nil
}

func parseInt64(lit string) int64 {
	var v int64
	for _, r := range lit {
		v = v*10 + int64(r-'0')
	}
	return v
}
