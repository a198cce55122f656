package parser

import (
	"github.com/fenlang/fen/internal/lexer"
	"github.com/fenlang/fen/internal/parsetree"
)

func (p *Parser) parseBlock() (*parsetree.BlockStmt, error) {
	start, err := p.expect(lexer.LBRACE, "'{'")
	if err != nil {
		return nil, err
	}
	var stmts []parsetree.Statement
	for !p.at(lexer.RBRACE) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	end, err := p.expect(lexer.RBRACE, "'}'")
	if err != nil {
		return nil, err
	}
	blk := &parsetree.BlockStmt{Statements: stmts}
	blk.NodeSpan = dspan(start.Span, end.Span)
	return blk, nil
}

// wrapInBlock lets an "else if" chain satisfy IfElseStmt.Else's *BlockStmt
// shape by nesting the chained IfElseStmt as the block's sole statement.
func wrapInBlock(stmt parsetree.Statement) *parsetree.BlockStmt {
	blk := &parsetree.BlockStmt{Statements: []parsetree.Statement{stmt}}
	blk.NodeSpan = stmt.Span()
	return blk
}

func (p *Parser) parseStatement() (parsetree.Statement, error) {
	switch {
	case p.at(lexer.RETURN):
		return p.parseReturn()
	case p.at(lexer.LET):
		return p.parseLet()
	case p.at(lexer.CONST):
		s, err := p.parseConstStmt()
		if err != nil {
			return nil, err
		}
		return s, nil
	case p.at(lexer.IF):
		return p.parseIfElse()
	case p.at(lexer.WHILE):
		return p.parseWhile()
	case p.at(lexer.BREAK):
		tok := p.advance()
		if _, err := p.expect(lexer.SEMI, "';'"); err != nil {
			return nil, err
		}
		s := &parsetree.BreakStmt{}
		s.NodeSpan = tok.Span
		return s, nil
	case p.at(lexer.CONTINUE):
		tok := p.advance()
		if _, err := p.expect(lexer.SEMI, "';'"); err != nil {
			return nil, err
		}
		s := &parsetree.ContinueStmt{}
		s.NodeSpan = tok.Span
		return s, nil
	case p.at(lexer.LBRACE):
		return p.parseBlock()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseReturn() (parsetree.Statement, error) {
	start := p.advance() // "return"
	var value parsetree.Expression
	if !p.at(lexer.SEMI) {
		v, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		value = v
	}
	end, err := p.expect(lexer.SEMI, "';'")
	if err != nil {
		return nil, err
	}
	s := &parsetree.ReturnStmt{Value: value}
	s.NodeSpan = dspan(start.Span, end.Span)
	return s, nil
}

func (p *Parser) parseLet() (parsetree.Statement, error) {
	start := p.advance() // "let"
	name, err := p.expect(lexer.IDENT, "variable name")
	if err != nil {
		return nil, err
	}
	var ty parsetree.TypeExpr
	if _, ok := p.match(lexer.COLON); ok {
		ty, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.ASSIGN, "'='"); err != nil {
		return nil, err
	}
	init, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	end, err := p.expect(lexer.SEMI, "';'")
	if err != nil {
		return nil, err
	}
	s := &parsetree.LetStmt{Name: name.Literal, NameSpan: name.Span, Type: ty, Initializer: init}
	s.NodeSpan = dspan(start.Span, end.Span)
	return s, nil
}

func (p *Parser) parseConstStmt() (*parsetree.ConstStmt, error) {
	start := p.advance() // "const"
	name, err := p.expect(lexer.IDENT, "constant name")
	if err != nil {
		return nil, err
	}
	var ty parsetree.TypeExpr
	if _, ok := p.match(lexer.COLON); ok {
		ty, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.ASSIGN, "'='"); err != nil {
		return nil, err
	}
	init, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	end, err := p.expect(lexer.SEMI, "';'")
	if err != nil {
		return nil, err
	}
	s := &parsetree.ConstStmt{Name: name.Literal, NameSpan: name.Span, Type: ty, Initializer: init}
	s.NodeSpan = dspan(start.Span, end.Span)
	return s, nil
}

func (p *Parser) parseIfElse() (parsetree.Statement, error) {
	start := p.advance() // "if"
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	s := &parsetree.IfElseStmt{Condition: cond, Then: then}
	endSpan := then.Span()
	if _, ok := p.match(lexer.ELSE); ok {
		if p.at(lexer.IF) {
			chained, err := p.parseIfElse()
			if err != nil {
				return nil, err
			}
			s.Else = wrapInBlock(chained)
		} else {
			elseBlk, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			s.Else = elseBlk
		}
		endSpan = s.Else.Span()
	}
	s.NodeSpan = dspan(start.Span, endSpan)
	return s, nil
}

func (p *Parser) parseWhile() (parsetree.Statement, error) {
	start := p.advance() // "while"
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	s := &parsetree.WhileStmt{Condition: cond, Body: body}
	s.NodeSpan = dspan(start.Span, body.Span())
	return s, nil
}

func (p *Parser) parseExprStmt() (parsetree.Statement, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	end, err := p.expect(lexer.SEMI, "';'")
	if err != nil {
		return nil, err
	}
	s := &parsetree.ExprStmt{Value: expr}
	s.NodeSpan = dspan(expr.Span(), end.Span)
	return s, nil
}
