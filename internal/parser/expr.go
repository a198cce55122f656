package parser

import (
	"github.com/fenlang/fen/internal/lexer"
	"github.com/fenlang/fen/internal/parsetree"
)

func (p *Parser) parseExpression() (parsetree.Expression, error) {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() (parsetree.Expression, error) {
	left, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if _, ok := p.match(lexer.ASSIGN); ok {
		right, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		e := &parsetree.AssignExpr{Target: left, Value: right}
		e.NodeSpan = dspan(left.Span(), right.Span())
		return e, nil
	}
	return left, nil
}

type binaryLevel struct {
	next func(*Parser) (parsetree.Expression, error)
	ops  map[lexer.TokenType]parsetree.BinaryOperator
}

func (p *Parser) parseBinary(level binaryLevel) (parsetree.Expression, error) {
	left, err := level.next(p)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := level.ops[p.cur().Type]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := level.next(p)
		if err != nil {
			return nil, err
		}
		e := &parsetree.BinaryOpExpr{Op: op, Left: left, Right: right}
		e.NodeSpan = dspan(left.Span(), right.Span())
		left = e
	}
}

func (p *Parser) parseLogicalOr() (parsetree.Expression, error) {
	return p.parseBinary(binaryLevel{p.parseLogicalAnd, map[lexer.TokenType]parsetree.BinaryOperator{lexer.PIPEPIPE: parsetree.OpOr}})
}

func (p *Parser) parseLogicalAnd() (parsetree.Expression, error) {
	return p.parseBinary(binaryLevel{p.parseEquality, map[lexer.TokenType]parsetree.BinaryOperator{lexer.AMPAMP: parsetree.OpAnd}})
}

func (p *Parser) parseEquality() (parsetree.Expression, error) {
	return p.parseBinary(binaryLevel{p.parseRelational, map[lexer.TokenType]parsetree.BinaryOperator{
		lexer.EQ: parsetree.OpEq, lexer.NEQ: parsetree.OpNeq,
	}})
}

func (p *Parser) parseRelational() (parsetree.Expression, error) {
	return p.parseBinary(binaryLevel{p.parseAdditive, map[lexer.TokenType]parsetree.BinaryOperator{
		lexer.LT: parsetree.OpLt, lexer.LTE: parsetree.OpLte, lexer.GT: parsetree.OpGt, lexer.GTE: parsetree.OpGte,
	}})
}

func (p *Parser) parseAdditive() (parsetree.Expression, error) {
	return p.parseBinary(binaryLevel{p.parseMultiplicative, map[lexer.TokenType]parsetree.BinaryOperator{
		lexer.PLUS: parsetree.OpAdd, lexer.MINUS: parsetree.OpSub,
	}})
}

func (p *Parser) parseMultiplicative() (parsetree.Expression, error) {
	return p.parseBinary(binaryLevel{p.parseUnary, map[lexer.TokenType]parsetree.BinaryOperator{
		lexer.STAR: parsetree.OpMul, lexer.SLASH: parsetree.OpDiv, lexer.PERCENT: parsetree.OpMod,
	}})
}

func (p *Parser) parseUnary() (parsetree.Expression, error) {
	if tok, ok := p.match(lexer.MINUS); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		e := &parsetree.UnaryExpr{Op: parsetree.OpNeg, Operand: operand}
		e.NodeSpan = dspan(tok.Span, operand.Span())
		return e, nil
	}
	if tok, ok := p.match(lexer.BANG); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		e := &parsetree.UnaryExpr{Op: parsetree.OpNot, Operand: operand}
		e.NodeSpan = dspan(tok.Span, operand.Span())
		return e, nil
	}
	if tok, ok := p.match(lexer.DELETE); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		e := &parsetree.DeleteExpr{Target: operand}
		e.NodeSpan = dspan(tok.Span, operand.Span())
		return e, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (parsetree.Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.at(lexer.LPAREN):
			p.advance()
			var args []parsetree.Expression
			for !p.at(lexer.RPAREN) {
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if _, ok := p.match(lexer.COMMA); !ok {
					break
				}
			}
			end, err := p.expect(lexer.RPAREN, "')'")
			if err != nil {
				return nil, err
			}
			call := &parsetree.CallExpr{Callee: expr, Args: args}
			call.NodeSpan = dspan(expr.Span(), end.Span)
			expr = call

		case p.at(lexer.DOT):
			p.advance()
			name, err := p.expect(lexer.IDENT, "field or method name")
			if err != nil {
				return nil, err
			}
			f := &parsetree.FieldAccessExpr{Target: expr, Name: name.Literal}
			f.NodeSpan = dspan(expr.Span(), name.Span)
			expr = f

		case p.at(lexer.COLONCOLON):
			p.advance()
			name, err := p.expect(lexer.IDENT, "static member name")
			if err != nil {
				return nil, err
			}
			ident, ok := expr.(*parsetree.IdentExpr)
			if !ok {
				return nil, p.errorf(expr.Span(), "'::' requires a class name on the left")
			}
			s := &parsetree.StaticAccessExpr{ClassName: ident.Name, Name: name.Literal}
			s.NodeSpan = dspan(expr.Span(), name.Span)
			expr = s

		case p.at(lexer.LBRACKET):
			p.advance()
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			end, err := p.expect(lexer.RBRACKET, "']'")
			if err != nil {
				return nil, err
			}
			ix := &parsetree.IndexingExpr{Target: expr, Index: idx}
			ix.NodeSpan = dspan(expr.Span(), end.Span)
			expr = ix

		case p.at(lexer.AS):
			p.advance()
			to, err := p.parseType()
			if err != nil {
				return nil, err
			}
			c := &parsetree.CastExpr{Target: expr, To: to}
			c.NodeSpan = dspan(expr.Span(), to.Span())
			expr = c

		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (parsetree.Expression, error) {
	tok := p.cur()
	switch tok.Type {
	case lexer.INT:
		p.advance()
		e := &parsetree.IntLiteral{Value: parseInt64(tok.Literal)}
		e.NodeSpan = tok.Span
		return e, nil

	case lexer.UINT:
		p.advance()
		e := &parsetree.UIntLiteral{Value: uint64(parseInt64(tok.Literal))}
		e.NodeSpan = tok.Span
		return e, nil

	case lexer.FLOAT:
		p.advance()
		e := &parsetree.FloatLiteral{Value: parseFloat64(tok.Literal)}
		e.NodeSpan = tok.Span
		return e, nil

	case lexer.CHAR:
		p.advance()
		var r rune
		for _, c := range tok.Literal {
			r = c
			break
		}
		e := &parsetree.CharLiteral{Value: r}
		e.NodeSpan = tok.Span
		return e, nil

	case lexer.STRING:
		p.advance()
		e := &parsetree.StringLiteral{Value: tok.Literal}
		e.NodeSpan = tok.Span
		return e, nil

	case lexer.TRUE, lexer.FALSE:
		p.advance()
		e := &parsetree.BoolLiteral{Value: tok.Type == lexer.TRUE}
		e.NodeSpan = tok.Span
		return e, nil

	case lexer.NONE:
		p.advance()
		e := &parsetree.NoneLiteral{}
		e.NodeSpan = tok.Span
		return e, nil

	case lexer.SELF:
		p.advance()
		e := &parsetree.SelfExpr{}
		e.NodeSpan = tok.Span
		return e, nil

	case lexer.IDENT:
		p.advance()
		e := &parsetree.IdentExpr{Name: tok.Literal}
		e.NodeSpan = tok.Span
		return e, nil

	case lexer.LPAREN:
		p.advance()
		if end, ok := p.match(lexer.RPAREN); ok {
			e := &parsetree.UnitLiteral{}
			e.NodeSpan = dspan(tok.Span, end.Span)
			return e, nil
		}
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
			return nil, err
		}
		return inner, nil

	case lexer.LBRACKET:
		p.advance()
		var elems []parsetree.Expression
		for !p.at(lexer.RBRACKET) {
			el, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
			if _, ok := p.match(lexer.COMMA); !ok {
				break
			}
		}
		end, err := p.expect(lexer.RBRACKET, "']'")
		if err != nil {
			return nil, err
		}
		e := &parsetree.ListLiteralExpr{Elements: elems}
		e.NodeSpan = dspan(tok.Span, end.Span)
		return e, nil

	case lexer.NEW:
		return p.parseNewExpr(tok)

	default:
		return nil, p.errorf(tok.Span, "unexpected token %q in expression", tok.Literal)
	}
}

func (p *Parser) parseNewExpr(start lexer.Token) (parsetree.Expression, error) {
	p.advance() // "new"

	if p.at(lexer.LBRACKET) {
		p.advance()
		elemTy, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RBRACKET, "']'"); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.LPAREN, "'('"); err != nil {
			return nil, err
		}
		size, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		end, err := p.expect(lexer.RPAREN, "')'")
		if err != nil {
			return nil, err
		}
		e := &parsetree.NewArrayExpr{ElemType: elemTy, Size: size}
		e.NodeSpan = dspan(start.Span, end.Span)
		return e, nil
	}

	className, err := p.expect(lexer.IDENT, "class name")
	if err != nil {
		return nil, err
	}
	var typeArgs []parsetree.TypeExpr
	if _, ok := p.match(lexer.LT); ok {
		for {
			ta, err := p.parseType()
			if err != nil {
				return nil, err
			}
			typeArgs = append(typeArgs, ta)
			if _, ok := p.match(lexer.COMMA); ok {
				continue
			}
			break
		}
		if _, err := p.expect(lexer.GT, "'>'"); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.LPAREN, "'('"); err != nil {
		return nil, err
	}
	var args []parsetree.Expression
	for !p.at(lexer.RPAREN) {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if _, ok := p.match(lexer.COMMA); !ok {
			break
		}
	}
	end, err := p.expect(lexer.RPAREN, "')'")
	if err != nil {
		return nil, err
	}
	e := &parsetree.NewObjExpr{ClassName: className.Literal, TypeArgs: typeArgs, Args: args}
	e.NodeSpan = dspan(start.Span, end.Span)
	return e, nil
}

func parseFloat64(lit string) float64 {
	var intPart, fracPart float64
	var fracDiv float64 = 1
	seenDot := false
	for _, r := range lit {
		if r == '.' {
			seenDot = true
			continue
		}
		d := float64(r - '0')
		if !seenDot {
			intPart = intPart*10 + d
		} else {
			fracDiv *= 10
			fracPart = fracPart*10 + d
		}
	}
	return intPart + fracPart/fracDiv
}
