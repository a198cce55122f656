package parser

import (
	"github.com/fenlang/fen/internal/lexer"
	"github.com/fenlang/fen/internal/parsetree"
)

// parseType parses a type expression: a bare name, "[T]", "func(P*) -> R", or
// any of those followed by "?" for nullable.
func (p *Parser) parseType() (parsetree.TypeExpr, error) {
	base, err := p.parseBaseType()
	if err != nil {
		return nil, err
	}
	for {
		q, ok := p.match(lexer.QUESTION)
		if !ok {
			return base, nil
		}
		base = &parsetree.NullableType{Inner: base, NodeSpan: dspan(base.Span(), q.Span)}
	}
}

func (p *Parser) parseBaseType() (parsetree.TypeExpr, error) {
	switch {
	case p.at(lexer.LBRACKET):
		start := p.advance()
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		end, err := p.expect(lexer.RBRACKET, "']'")
		if err != nil {
			return nil, err
		}
		return &parsetree.ListType{Elem: elem, NodeSpan: dspan(start.Span, end.Span)}, nil

	case p.at(lexer.FUNC):
		start := p.advance()
		if _, err := p.expect(lexer.LPAREN, "'('"); err != nil {
			return nil, err
		}
		var params []parsetree.TypeExpr
		for !p.at(lexer.RPAREN) {
			pt, err := p.parseType()
			if err != nil {
				return nil, err
			}
			params = append(params, pt)
			if _, ok := p.match(lexer.COMMA); !ok {
				break
			}
		}
		if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.ARROW, "'->'"); err != nil {
			return nil, err
		}
		ret, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &parsetree.FunctionType{Params: params, Return: ret, NodeSpan: dspan(start.Span, ret.Span())}, nil

	default:
		tok, err := p.expect(lexer.IDENT, "type name")
		if err != nil {
			return nil, err
		}
		return &parsetree.SimpleType{Name: tok.Literal, NodeSpan: tok.Span}, nil
	}
}
