package hir

import (
	"fmt"

	"github.com/fenlang/fen/internal/diag"
	"github.com/fenlang/fen/internal/ident"
	"github.com/fenlang/fen/internal/parser"
	"github.com/fenlang/fen/internal/parsetree"
	"github.com/fenlang/fen/internal/types"
)

var stdlibNames = map[string]bool{
	"io": true, "math": true, "file": true, "list": true, "string": true, "time": true,
}

// StdlibLoader resolves a bundled standard-library name to its Fen source
// text. internal/stdlib supplies the concrete implementation; lowering only
// depends on this function type so the pipeline's core packages never
// import that package directly.
type StdlibLoader func(name string) (src string, ok bool)

type lowerer struct {
	arena   *types.Arena
	idents  *ident.Pool
	source  *diag.Source
	loadStd StdlibLoader
	sig     *ModuleSignature

	currentClass string
}

// Lower builds an HirModule from a parse tree: it registers
// every top-level signature eagerly, merges standard-library imports, then
// lowers every non-extern body.
func Lower(prog *parsetree.Program, source *diag.Source, arena *types.Arena, idents *ident.Pool, loadStd StdlibLoader) (*HirModule, error) {
	l := &lowerer{arena: arena, idents: idents, source: source, loadStd: loadStd, sig: newModuleSignature()}

	mod := &HirModule{
		Signature: l.sig,
		Functions: make(map[string]*FunctionBody),
		Classes:   make(map[string]*ClassBody),
	}

	for _, item := range prog.Items {
		switch it := item.(type) {
		case *parsetree.ImportDecl:
			imp, err := l.lowerImport(it)
			if err != nil {
				return nil, err
			}
			mod.Imports = append(mod.Imports, imp)
		case *parsetree.FuncDecl:
			fsig, err := l.resolveFunctionSignature(it)
			if err != nil {
				return nil, err
			}
			l.sig.Functions[it.Name] = fsig
		case *parsetree.ClassDecl:
			csig, err := l.resolveClassSignature(it)
			if err != nil {
				return nil, err
			}
			l.sig.Classes[it.Name] = csig
		case *parsetree.EnumDecl:
			l.sig.Classes[it.Name] = l.resolveEnumSignature(it)
		default:
			return nil, l.unsupportedStatementErr(item.Span(), fmt.Sprintf("%T", item))
		}
	}

	for _, item := range prog.Items {
		switch it := item.(type) {
		case *parsetree.FuncDecl:
			if it.IsExternal {
				continue
			}
			body, err := l.lowerBlock(it.Body)
			if err != nil {
				return nil, err
			}
			mod.Functions[it.Name] = &FunctionBody{Signature: l.sig.Functions[it.Name], Body: body}
		case *parsetree.ClassDecl:
			cb, err := l.lowerClassBody(it)
			if err != nil {
				return nil, err
			}
			mod.Classes[it.Name] = cb
		}
	}

	return mod, nil
}

func (l *lowerer) lowerImport(it *parsetree.ImportDecl) (Import, error) {
	name := lastSegment(it.Path)
	if !stdlibNames[name] {
		return Import{Path: it.Path, IsStd: false}, nil
	}
	src, ok := l.loadStd(name)
	if !ok {
		return Import{}, diag.New("UnknownType", it.Span(), l.source, "standard library %q has no bundled source", name)
	}
	libSource := &diag.Source{File: name + ".fen", Text: src}
	libProg, err := parser.Parse(src, libSource.File)
	if err != nil {
		return Import{}, err
	}
	libMod, err := Lower(libProg, libSource, l.arena, l.idents, l.loadStd)
	if err != nil {
		return Import{}, err
	}
	for fname, fsig := range libMod.Signature.Functions {
		l.sig.Functions[fname] = fsig
	}
	for cname, csig := range libMod.Signature.Classes {
		l.sig.Classes[cname] = csig
	}
	return Import{Path: it.Path, IsStd: true}, nil
}

func lastSegment(path string) string {
	last := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			last = path[i+1:]
			break
		}
	}
	return last
}

var primitiveGetters = map[string]func(*types.Arena) *types.Ty{
	"int64":   (*types.Arena).GetInt64,
	"float64": (*types.Arena).GetFloat64,
	"uint64":  (*types.Arena).GetUInt64,
	"bool":    (*types.Arena).GetBool,
	"char":    (*types.Arena).GetChar,
	"unit":    (*types.Arena).GetUnit,
	"string":  (*types.Arena).GetString,
}

func toTySpan(s diag.Span) types.Span {
	return types.Span{Start: s.Start, End: s.End, Line: s.Line, Col: s.Col}
}

func (l *lowerer) resolveType(t parsetree.TypeExpr) (*types.Ty, error) {
	switch tt := t.(type) {
	case *parsetree.SimpleType:
		if getter, ok := primitiveGetters[tt.Name]; ok {
			return getter(l.arena), nil
		}
		return l.arena.GetNamed(l.idents.Intern(tt.Name), toTySpan(tt.NodeSpan)), nil

	case *parsetree.ListType:
		inner, err := l.resolveType(tt.Elem)
		if err != nil {
			return nil, err
		}
		return l.arena.GetList(inner), nil

	case *parsetree.NullableType:
		inner, err := l.resolveType(tt.Inner)
		if err != nil {
			return nil, err
		}
		return l.arena.GetNullable(inner), nil

	case *parsetree.FunctionType:
		params := make([]*types.Ty, len(tt.Params))
		for i, p := range tt.Params {
			pt, err := l.resolveType(p)
			if err != nil {
				return nil, err
			}
			params[i] = pt
		}
		ret, err := l.resolveType(tt.Return)
		if err != nil {
			return nil, err
		}
		return l.arena.GetFunction(ret, params), nil

	default:
		return nil, l.unsupportedExprErr(t.Span(), fmt.Sprintf("%T", t))
	}
}

func (l *lowerer) resolveFunctionSignature(fd *parsetree.FuncDecl) (*FunctionSignature, error) {
	params := make([]Param, len(fd.Params))
	for i, p := range fd.Params {
		if p.Type == nil {
			params[i] = Param{Name: p.Name, Type: l.arena.GetUninitialized(), Span: p.NameSpan}
			continue
		}
		t, err := l.resolveType(p.Type)
		if err != nil {
			return nil, err
		}
		params[i] = Param{Name: p.Name, Type: t, Span: p.NameSpan}
	}
	ret, err := l.resolveType(fd.Return)
	if err != nil {
		return nil, err
	}
	return &FunctionSignature{
		Name: fd.Name, Params: params, Return: ret, Generics: fd.Generics,
		IsExternal: fd.IsExternal, Visibility: fd.Visibility,
	}, nil
}

func (l *lowerer) resolveMethodSignature(fd *parsetree.FuncDecl, modifier parsetree.MethodModifier, selfTy *types.Ty) (*FunctionSignature, error) {
	params := make([]Param, len(fd.Params))
	for i, p := range fd.Params {
		if p.Name == "self" {
			params[i] = Param{Name: "self", Type: selfTy, Span: p.NameSpan}
			continue
		}
		t, err := l.resolveType(p.Type)
		if err != nil {
			return nil, err
		}
		params[i] = Param{Name: p.Name, Type: t, Span: p.NameSpan}
	}
	ret := l.arena.GetUnit()
	if fd.Return != nil {
		t, err := l.resolveType(fd.Return)
		if err != nil {
			return nil, err
		}
		ret = t
	}
	return &FunctionSignature{Name: fd.Name, Params: params, Return: ret, Visibility: fd.Visibility, Modifier: modifier}, nil
}

func (l *lowerer) constType(c *parsetree.ConstStmt) (*types.Ty, error) {
	if c.Type != nil {
		return l.resolveType(c.Type)
	}
	return l.arena.GetUninitialized(), nil
}

func (l *lowerer) resolveClassSignature(cd *parsetree.ClassDecl) (*ClassSignature, error) {
	if len(cd.Operators) > 0 {
		return nil, diag.New("UnsupportedStatement", cd.Operators[0].Span(), l.source,
			"operator overloads are not supported (operator %s on class %s)", cd.Operators[0].Operator, cd.Name)
	}

	selfTy := l.arena.GetNamed(l.idents.Intern(cd.Name), toTySpan(cd.NameSpan))

	csig := &ClassSignature{
		Name:        cd.Name,
		Fields:      make(map[string]FieldSig),
		Methods:     make(map[string]*FunctionSignature),
		Constants:   make(map[string]*types.Ty),
		ConstValues: make(map[string]Expr),
		Generics:    cd.Generics,
		IsStruct:    cd.IsStruct,
	}

	for _, f := range cd.Fields {
		ft, err := l.resolveType(f.Type)
		if err != nil {
			return nil, err
		}
		csig.Fields[f.Name] = FieldSig{Name: f.Name, Type: ft, Visibility: f.Visibility, Span: f.NameSpan}
		csig.FieldOrder = append(csig.FieldOrder, f.Name)
	}

	for i := range cd.Methods {
		m := &cd.Methods[i]
		msig, err := l.resolveMethodSignature(&m.FuncDecl, m.Modifier, selfTy)
		if err != nil {
			return nil, err
		}
		csig.Methods[m.Name] = msig
	}

	for i := range cd.Constants {
		c := &cd.Constants[i]
		ct, err := l.constType(c)
		if err != nil {
			return nil, err
		}
		csig.Constants[c.Name] = ct
	}

	if cd.Constructor != nil {
		ctor, err := l.resolveMethodSignature(cd.Constructor, parsetree.ModifierInstance, selfTy)
		if err != nil {
			return nil, err
		}
		ctor.Return = l.arena.GetUnit()
		// The receiver is implicit in source; record it as Params[0].
		ctor.Params = append([]Param{{Name: "self", Type: selfTy, Span: cd.NameSpan}}, ctor.Params...)
		csig.Constructor = ctor
	}
	if cd.Destructor != nil {
		dtor, err := l.resolveMethodSignature(cd.Destructor, parsetree.ModifierInstance, selfTy)
		if err != nil {
			return nil, err
		}
		dtor.Return = l.arena.GetUnit()
		dtor.Params = append([]Param{{Name: "self", Type: selfTy, Span: cd.NameSpan}}, dtor.Params...)
		csig.Destructor = dtor
	}

	return csig, nil
}

// resolveEnumSignature lowers "enum Name { Members }" into a class-shaped
// signature with no fields or methods, only typed constants (supplemental
// construct over the typed sections of; see SPEC_FULL.md §4.2).
func (l *lowerer) resolveEnumSignature(ed *parsetree.EnumDecl) *ClassSignature {
	csig := &ClassSignature{
		Name:        ed.Name,
		Fields:      make(map[string]FieldSig),
		Methods:     make(map[string]*FunctionSignature),
		Constants:   make(map[string]*types.Ty),
		ConstValues: make(map[string]Expr),
	}
	i64 := l.arena.GetInt64()
	var next int64
	for _, m := range ed.Members {
		v := next
		if m.Value != nil {
			v = *m.Value
		}
		next = v + 1
		csig.Constants[m.Name] = i64
		lit := &IntLiteral{Value: v}
		lit.span, lit.ty = m.NameSpan, i64
		csig.ConstValues[m.Name] = lit
	}
	return csig
}

func (l *lowerer) lowerClassBody(cd *parsetree.ClassDecl) (*ClassBody, error) {
	csig := l.sig.Classes[cd.Name]
	prevClass := l.currentClass
	l.currentClass = cd.Name
	defer func() { l.currentClass = prevClass }()

	cb := &ClassBody{Signature: csig, Methods: make(map[string]*BlockStmt)}

	for i := range cd.Methods {
		m := &cd.Methods[i]
		body, err := l.lowerBlock(m.Body)
		if err != nil {
			return nil, err
		}
		cb.Methods[m.Name] = body
	}
	if cd.Constructor != nil {
		body, err := l.lowerBlock(cd.Constructor.Body)
		if err != nil {
			return nil, err
		}
		cb.Constructor = body
	}
	if cd.Destructor != nil {
		body, err := l.lowerBlock(cd.Destructor.Body)
		if err != nil {
			return nil, err
		}
		cb.Destructor = body
	}
	for i := range cd.Constants {
		c := &cd.Constants[i]
		val, err := l.lowerExpr(c.Initializer)
		if err != nil {
			return nil, err
		}
		csig.ConstValues[c.Name] = val
	}
	return cb, nil
}

func (l *lowerer) lowerBlock(b *parsetree.BlockStmt) (*BlockStmt, error) {
	stmts := make([]Stmt, 0, len(b.Statements))
	for _, s := range b.Statements {
		hs, err := l.lowerStmt(s)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, hs)
	}
	return &BlockStmt{stmtBase: stmtBase{span: b.Span()}, Statements: stmts}, nil
}

func (l *lowerer) lowerStmt(s parsetree.Statement) (Stmt, error) {
	switch st := s.(type) {
	case *parsetree.ReturnStmt:
		var v Expr
		if st.Value != nil {
			e, err := l.lowerExpr(st.Value)
			if err != nil {
				return nil, err
			}
			v = e
		}
		return &ReturnStmt{stmtBase: stmtBase{span: st.Span()}, Value: v}, nil

	case *parsetree.LetStmt:
		init, err := l.lowerExpr(st.Initializer)
		if err != nil {
			return nil, err
		}
		declared, err := l.optionalType(st.Type)
		if err != nil {
			return nil, err
		}
		return &LetStmt{stmtBase: stmtBase{span: st.Span()}, Name: st.Name, NameSpan: st.NameSpan, Declared: declared, Initializer: init}, nil

	case *parsetree.ConstStmt:
		init, err := l.lowerExpr(st.Initializer)
		if err != nil {
			return nil, err
		}
		declared, err := l.optionalType(st.Type)
		if err != nil {
			return nil, err
		}
		return &ConstStmt{stmtBase: stmtBase{span: st.Span()}, Name: st.Name, NameSpan: st.NameSpan, Declared: declared, Initializer: init}, nil

	case *parsetree.IfElseStmt:
		cond, err := l.lowerExpr(st.Condition)
		if err != nil {
			return nil, err
		}
		then, err := l.lowerBlock(st.Then)
		if err != nil {
			return nil, err
		}
		var els *BlockStmt
		if st.Else != nil {
			e, err := l.lowerBlock(st.Else)
			if err != nil {
				return nil, err
			}
			els = e
		}
		return &IfElseStmt{stmtBase: stmtBase{span: st.Span()}, Condition: cond, Then: then, Else: els}, nil

	case *parsetree.WhileStmt:
		cond, err := l.lowerExpr(st.Condition)
		if err != nil {
			return nil, err
		}
		body, err := l.lowerBlock(st.Body)
		if err != nil {
			return nil, err
		}
		return &WhileStmt{stmtBase: stmtBase{span: st.Span()}, Condition: cond, Body: body}, nil

	case *parsetree.BreakStmt:
		return &BreakStmt{stmtBase{span: st.Span()}}, nil

	case *parsetree.ContinueStmt:
		return &ContinueStmt{stmtBase{span: st.Span()}}, nil

	case *parsetree.BlockStmt:
		return l.lowerBlock(st)

	case *parsetree.ExprStmt:
		v, err := l.lowerExpr(st.Value)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{stmtBase: stmtBase{span: st.Span()}, Value: v}, nil

	default:
		return nil, l.unsupportedStatementErr(s.Span(), fmt.Sprintf("%T", s))
	}
}

func (l *lowerer) optionalType(t parsetree.TypeExpr) (*types.Ty, error) {
	if t == nil {
		return nil, nil
	}
	return l.resolveType(t)
}

func (l *lowerer) lowerExpr(e parsetree.Expression) (Expr, error) {
	switch ex := e.(type) {
	case *parsetree.IntLiteral:
		r := &IntLiteral{Value: ex.Value}
		r.span, r.ty = ex.Span(), l.arena.GetInt64()
		return r, nil

	case *parsetree.UIntLiteral:
		r := &UIntLiteral{Value: ex.Value}
		r.span, r.ty = ex.Span(), l.arena.GetUInt64()
		return r, nil

	case *parsetree.FloatLiteral:
		r := &FloatLiteral{Value: ex.Value}
		r.span, r.ty = ex.Span(), l.arena.GetFloat64()
		return r, nil

	case *parsetree.BoolLiteral:
		r := &BoolLiteral{Value: ex.Value}
		r.span, r.ty = ex.Span(), l.arena.GetBool()
		return r, nil

	case *parsetree.CharLiteral:
		r := &CharLiteral{Value: ex.Value}
		r.span, r.ty = ex.Span(), l.arena.GetChar()
		return r, nil

	case *parsetree.UnitLiteral:
		r := &UnitLiteral{}
		r.span, r.ty = ex.Span(), l.arena.GetUnit()
		return r, nil

	case *parsetree.StringLiteral:
		r := &StringLiteral{Value: ex.Value}
		r.span, r.ty = ex.Span(), l.arena.GetString()
		return r, nil

	case *parsetree.NoneLiteral:
		r := &NoneLiteral{}
		r.span, r.ty = ex.Span(), l.arena.GetUninitialized()
		return r, nil

	case *parsetree.IdentExpr:
		r := &IdentExpr{Name: ex.Name}
		r.span, r.ty = ex.Span(), l.arena.GetUninitialized()
		return r, nil

	case *parsetree.SelfExpr:
		r := &SelfExpr{}
		r.span, r.ty = ex.Span(), l.arena.GetUninitialized()
		return r, nil

	case *parsetree.AssignExpr:
		target, err := l.lowerExpr(ex.Target)
		if err != nil {
			return nil, err
		}
		value, err := l.lowerExpr(ex.Value)
		if err != nil {
			return nil, err
		}
		r := &AssignExpr{Target: target, Value: value}
		r.span, r.ty = ex.Span(), l.arena.GetUninitialized()
		return r, nil

	case *parsetree.BinaryOpExpr:
		left, err := l.lowerExpr(ex.Left)
		if err != nil {
			return nil, err
		}
		right, err := l.lowerExpr(ex.Right)
		if err != nil {
			return nil, err
		}
		r := &BinaryOpExpr{Op: BinaryOperator(ex.Op), Left: left, Right: right}
		r.span, r.ty = ex.Span(), l.arena.GetUninitialized()
		return r, nil

	case *parsetree.UnaryExpr:
		operand, err := l.lowerExpr(ex.Operand)
		if err != nil {
			return nil, err
		}
		r := &UnaryExpr{Op: UnaryOperator(ex.Op), Operand: operand}
		r.span, r.ty = ex.Span(), l.arena.GetUninitialized()
		return r, nil

	case *parsetree.CallExpr:
		callee, err := l.lowerExpr(ex.Callee)
		if err != nil {
			return nil, err
		}
		args := make([]Expr, len(ex.Args))
		for i, a := range ex.Args {
			ae, err := l.lowerExpr(a)
			if err != nil {
				return nil, err
			}
			args[i] = ae
		}
		r := &CallExpr{Callee: callee, Args: args}
		r.span, r.ty = ex.Span(), l.arena.GetUninitialized()
		return r, nil

	case *parsetree.FieldAccessExpr:
		target, err := l.lowerExpr(ex.Target)
		if err != nil {
			return nil, err
		}
		r := &FieldAccessExpr{Target: target, Name: ex.Name}
		r.span, r.ty = ex.Span(), l.arena.GetUninitialized()
		return r, nil

	case *parsetree.StaticAccessExpr:
		r := &StaticAccessExpr{ClassName: ex.ClassName, Name: ex.Name}
		r.span, r.ty = ex.Span(), l.arena.GetUninitialized()
		return r, nil

	case *parsetree.IndexingExpr:
		target, err := l.lowerExpr(ex.Target)
		if err != nil {
			return nil, err
		}
		index, err := l.lowerExpr(ex.Index)
		if err != nil {
			return nil, err
		}
		r := &IndexingExpr{Target: target, Index: index}
		r.span, r.ty = ex.Span(), l.arena.GetUninitialized()
		return r, nil

	case *parsetree.NewObjExpr:
		args := make([]Expr, len(ex.Args))
		for i, a := range ex.Args {
			ae, err := l.lowerExpr(a)
			if err != nil {
				return nil, err
			}
			args[i] = ae
		}
		r := &NewObjExpr{ClassName: ex.ClassName, Args: args}
		r.span, r.ty = ex.Span(), l.arena.GetUninitialized()
		return r, nil

	case *parsetree.NewArrayExpr:
		elemTy, err := l.resolveType(ex.ElemType)
		if err != nil {
			return nil, err
		}
		size, err := l.lowerExpr(ex.Size)
		if err != nil {
			return nil, err
		}
		r := &NewArrayExpr{ElemType: elemTy, Size: size}
		r.span, r.ty = ex.Span(), l.arena.GetList(elemTy)
		return r, nil

	case *parsetree.DeleteExpr:
		target, err := l.lowerExpr(ex.Target)
		if err != nil {
			return nil, err
		}
		r := &DeleteExpr{Target: target}
		r.span, r.ty = ex.Span(), l.arena.GetUnit()
		return r, nil

	case *parsetree.CastExpr:
		target, err := l.lowerExpr(ex.Target)
		if err != nil {
			return nil, err
		}
		to, err := l.resolveType(ex.To)
		if err != nil {
			return nil, err
		}
		r := &CastExpr{Target: target, To: to}
		r.span, r.ty = ex.Span(), to
		return r, nil

	case *parsetree.ListLiteralExpr:
		if len(ex.Elements) == 0 {
			return nil, diag.New("EmptyListLiteral", ex.Span(), l.source, "list literal must have at least one element")
		}
		elems := make([]Expr, len(ex.Elements))
		for i, el := range ex.Elements {
			ee, err := l.lowerExpr(el)
			if err != nil {
				return nil, err
			}
			elems[i] = ee
		}
		r := &ListLiteralExpr{Elements: elems}
		r.span, r.ty = ex.Span(), l.arena.GetUninitialized()
		return r, nil

	default:
		return nil, l.unsupportedExprErr(e.Span(), fmt.Sprintf("%T", e))
	}
}

func (l *lowerer) unsupportedExprErr(span diag.Span, form string) error {
	return diag.New("UnsupportedExpr", span, l.source, "unsupported expression form: %s", form)
}

func (l *lowerer) unsupportedStatementErr(span diag.Span, form string) error {
	return diag.New("UnsupportedStatement", span, l.source, "unsupported statement form: %s", form)
}
