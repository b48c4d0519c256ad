package script

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mgomes/klass/klass"
)

func (s *Session) execStatements(fr *frame, stmts []Statement) (klass.Value, bool, error) {
	result := klass.NewNil()
	for _, stmt := range stmts {
		val, returned, err := s.execStatement(fr, stmt)
		if err != nil {
			return klass.NewNil(), false, err
		}
		if returned {
			return val, true, nil
		}
		result = val
	}
	return result, false, nil
}

func (s *Session) execStatement(fr *frame, stmt Statement) (klass.Value, bool, error) {
	switch stmt := stmt.(type) {
	case *ClassStmt:
		val, err := s.execClass(fr, stmt)
		return val, false, err
	case *ReturnStmt:
		if fr.call == nil {
			return klass.NewNil(), false, s.errorf(fr, stmt.Pos(), "return used outside a method")
		}
		if stmt.Value == nil {
			return klass.NewNil(), true, nil
		}
		val, err := s.eval(fr, stmt.Value)
		return val, err == nil, err
	case *PrintStmt:
		parts := make([]string, len(stmt.Args))
		for i, arg := range stmt.Args {
			val, err := s.eval(fr, arg)
			if err != nil {
				return klass.NewNil(), false, err
			}
			parts[i] = display(val)
		}
		if _, err := fmt.Fprintln(s.out, strings.Join(parts, " ")); err != nil {
			return klass.NewNil(), false, s.wrap(fr, stmt.Pos(), err)
		}
		return klass.NewNil(), false, nil
	case *AssignStmt:
		val, err := s.execAssign(fr, stmt)
		return val, false, err
	case *ExprStmt:
		val, err := s.eval(fr, stmt.Expr)
		return val, false, err
	default:
		return klass.NewNil(), false, s.errorf(fr, stmt.Pos(), "unsupported statement %T", stmt)
	}
}

// execClass extends the parent class with the declared methods. Static
// methods go to the class side and constructor becomes the constructor body.
func (s *Session) execClass(fr *frame, stmt *ClassStmt) (klass.Value, error) {
	parent := s.rt.Root()
	if stmt.Parent != nil {
		val, err := s.eval(fr, stmt.Parent)
		if err != nil {
			return klass.NewNil(), err
		}
		if val.Kind() != klass.KindClass {
			return klass.NewNil(), s.errorf(fr, stmt.Parent.Pos(), "superclass of %s must be a class, got %s", stmt.Name, val.Kind())
		}
		parent = val.Class()
	}

	instance, static := klass.Members{}, klass.Members{}
	for _, method := range stmt.Methods {
		fn := klass.NewFunction(s.compileMethod(fr, method))
		if method.Static {
			static[method.Name] = fn
		} else {
			instance[method.Name] = fn
		}
	}

	cl, err := parent.Extend(fr.ctx, instance, static, klass.WithName(stmt.Name))
	if err != nil {
		return klass.NewNil(), s.wrap(fr, stmt.Pos(), err)
	}
	val := klass.NewClass(cl)
	s.globals.Assign(stmt.Name, val)
	return val, nil
}

// compileMethod turns a def into an engine function. The body text is kept as
// the function source so a body that mentions base is wrapped as an override.
func (s *Session) compileMethod(decl *frame, method *MethodStmt) *klass.Function {
	source := decl.source
	return klass.NewSourceMethod(method.Name, method.Source, func(call *klass.Call, args []klass.Value) (klass.Value, error) {
		local := newEnv(s.globals)
		for i, param := range method.Params {
			val := klass.NewNil()
			if i < len(args) {
				val = args[i]
			}
			local.Define(param, val)
		}
		fr := &frame{ctx: call.Context(), call: call, env: local, source: source}
		val, _, err := s.execStatements(fr, method.Body)
		return val, err
	})
}

func (s *Session) execAssign(fr *frame, stmt *AssignStmt) (klass.Value, error) {
	val, err := s.eval(fr, stmt.Value)
	if err != nil {
		return klass.NewNil(), err
	}
	switch target := stmt.Target.(type) {
	case *Identifier:
		fr.env.Assign(target.Name, val)
	case *MemberExpr:
		recv, err := s.eval(fr, target.Object)
		if err != nil {
			return klass.NewNil(), err
		}
		switch recv.Kind() {
		case klass.KindObject:
			recv.Object().Set(target.Property, val)
		case klass.KindClass:
			recv.Class().SetStatic(target.Property, val)
		default:
			return klass.NewNil(), s.errorf(fr, target.Pos(), "cannot set %s on %s", target.Property, recv.Kind())
		}
	default:
		return klass.NewNil(), s.errorf(fr, stmt.Pos(), "invalid assignment target")
	}
	return val, nil
}

func (s *Session) eval(fr *frame, expr Expression) (klass.Value, error) {
	switch expr := expr.(type) {
	case *IntegerLiteral:
		return klass.NewInt(expr.Value), nil
	case *FloatLiteral:
		return klass.NewFloat(expr.Value), nil
	case *StringLiteral:
		return klass.NewString(expr.Value), nil
	case *BoolLiteral:
		return klass.NewBool(expr.Value), nil
	case *NilLiteral:
		return klass.NewNil(), nil
	case *Identifier:
		val, ok := fr.env.Get(expr.Name)
		if !ok {
			return klass.NewNil(), s.errorf(fr, expr.Pos(), "undefined variable %s", expr.Name)
		}
		return val, nil
	case *SelfExpr:
		if fr.call == nil {
			return klass.NewNil(), s.errorf(fr, expr.Pos(), "self used outside a method")
		}
		return fr.call.Self(), nil
	case *BaseExpr:
		if fr.call == nil {
			return klass.NewNil(), s.errorf(fr, expr.Pos(), "base used outside a method")
		}
		args, err := s.evalArgs(fr, expr.Args)
		if err != nil {
			return klass.NewNil(), err
		}
		val, err := fr.call.Base(args...)
		return val, s.wrap(fr, expr.Pos(), err)
	case *ObjectLiteral:
		obj := s.rt.NewObject(nil)
		for i, key := range expr.Keys {
			val, err := s.eval(fr, expr.Values[i])
			if err != nil {
				return klass.NewNil(), err
			}
			obj.Set(key, val)
		}
		return klass.NewObject(obj), nil
	case *ArrayLiteral:
		elems, err := s.evalArgs(fr, expr.Elements)
		if err != nil {
			return klass.NewNil(), err
		}
		return klass.NewArray(elems), nil
	case *MemberExpr:
		recv, err := s.eval(fr, expr.Object)
		if err != nil {
			return klass.NewNil(), err
		}
		return s.member(fr, expr, recv)
	case *CallExpr:
		return s.evalCall(fr, expr)
	case *InfixExpr:
		return s.evalInfix(fr, expr)
	default:
		return klass.NewNil(), s.errorf(fr, expr.Pos(), "unsupported expression %T", expr)
	}
}

func (s *Session) evalArgs(fr *frame, exprs []Expression) ([]klass.Value, error) {
	args := make([]klass.Value, 0, len(exprs))
	for _, expr := range exprs {
		val, err := s.eval(fr, expr)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}
	return args, nil
}

// member reads a property. Missing members read as nil. Classes also expose
// name, ancestor and prototype unless a static shadows them.
func (s *Session) member(fr *frame, expr *MemberExpr, recv klass.Value) (klass.Value, error) {
	switch recv.Kind() {
	case klass.KindObject:
		val, _ := recv.Object().Get(expr.Property)
		return val, nil
	case klass.KindClass:
		cl := recv.Class()
		if val, ok := cl.Static(expr.Property); ok {
			return val, nil
		}
		switch expr.Property {
		case "name":
			return klass.NewString(cl.Name()), nil
		case "ancestor":
			return klass.NewClass(cl.Ancestor()), nil
		case "prototype":
			return klass.NewObject(cl.Prototype()), nil
		}
		return klass.NewNil(), nil
	case klass.KindArray:
		if expr.Property == "length" {
			return klass.NewInt(int64(len(recv.Array()))), nil
		}
	case klass.KindString:
		if expr.Property == "length" {
			return klass.NewInt(int64(utf8.RuneCountInString(recv.String()))), nil
		}
	}
	return klass.NewNil(), s.errorf(fr, expr.Pos(), "cannot read %s of %s", expr.Property, recv.Kind())
}

func (s *Session) evalCall(fr *frame, expr *CallExpr) (klass.Value, error) {
	if callee, ok := expr.Callee.(*MemberExpr); ok {
		recv, err := s.eval(fr, callee.Object)
		if err != nil {
			return klass.NewNil(), err
		}
		args, err := s.evalArgs(fr, expr.Args)
		if err != nil {
			return klass.NewNil(), err
		}
		if recv.Kind() == klass.KindClass && callee.Property == "new" {
			if _, ok := recv.Class().Static("new"); !ok {
				obj, err := s.instantiate(fr, recv.Class(), args)
				if err != nil {
					return klass.NewNil(), s.wrap(fr, expr.Pos(), err)
				}
				return klass.NewObject(obj), nil
			}
		}
		val, err := s.invoke(fr, recv, callee.Property, args)
		return val, s.wrap(fr, callee.Pos(), err)
	}

	fn, err := s.eval(fr, expr.Callee)
	if err != nil {
		return klass.NewNil(), err
	}
	args, err := s.evalArgs(fr, expr.Args)
	if err != nil {
		return klass.NewNil(), err
	}
	val, err := s.apply(fr, fn, klass.NewNil(), args)
	return val, s.wrap(fr, expr.Pos(), err)
}

// The helpers below route through the running Call when there is one, so
// nested invocations count against the recursion limit.

func (s *Session) invoke(fr *frame, recv klass.Value, name string, args []klass.Value) (klass.Value, error) {
	if fr.call != nil {
		return fr.call.Invoke(recv, name, args...)
	}
	switch recv.Kind() {
	case klass.KindObject:
		return recv.Object().Invoke(fr.ctx, name, args...)
	case klass.KindClass:
		return recv.Class().Invoke(fr.ctx, name, args...)
	}
	return klass.NewNil(), fmt.Errorf("%w %s on %s", klass.ErrUnknownMember, name, recv.Kind())
}

func (s *Session) apply(fr *frame, fn, recv klass.Value, args []klass.Value) (klass.Value, error) {
	if fr.call != nil {
		return fr.call.Apply(fn, recv, args...)
	}
	return s.rt.Apply(fr.ctx, fn, recv, args...)
}

func (s *Session) instantiate(fr *frame, cl *klass.Class, args []klass.Value) (*klass.Object, error) {
	if fr.call != nil {
		return fr.call.New(cl, args...)
	}
	return cl.New(fr.ctx, args...)
}

func (s *Session) evalInfix(fr *frame, expr *InfixExpr) (klass.Value, error) {
	left, err := s.eval(fr, expr.Left)
	if err != nil {
		return klass.NewNil(), err
	}
	right, err := s.eval(fr, expr.Right)
	if err != nil {
		return klass.NewNil(), err
	}

	switch expr.Operator {
	case tokenEQ:
		return klass.NewBool(left.Equal(right)), nil
	case tokenNotEQ:
		return klass.NewBool(!left.Equal(right)), nil
	case tokenPlus:
		switch {
		case left.Kind() == klass.KindString || right.Kind() == klass.KindString:
			return klass.NewString(display(left) + display(right)), nil
		case left.Kind() == klass.KindArray && right.Kind() == klass.KindArray:
			joined := append(append([]klass.Value{}, left.Array()...), right.Array()...)
			return klass.NewArray(joined), nil
		}
		if val, ok := arithmetic(left, right, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }); ok {
			return val, nil
		}
	case tokenMinus:
		if val, ok := arithmetic(left, right, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b }); ok {
			return val, nil
		}
	}
	return klass.NewNil(), s.errorf(fr, expr.Pos(), "unsupported operands for %s: %s and %s", expr.Operator, left.Kind(), right.Kind())
}

func arithmetic(left, right klass.Value, ints func(a, b int64) int64, floats func(a, b float64) float64) (klass.Value, bool) {
	if !isNumeric(left) || !isNumeric(right) {
		return klass.NewNil(), false
	}
	if left.Kind() == klass.KindInt && right.Kind() == klass.KindInt {
		return klass.NewInt(ints(left.Int(), right.Int())), true
	}
	return klass.NewFloat(floats(left.Float(), right.Float())), true
}

func isNumeric(v klass.Value) bool {
	return v.Kind() == klass.KindInt || v.Kind() == klass.KindFloat
}

// display renders a value for print and string concatenation.
func display(v klass.Value) string {
	switch v.Kind() {
	case klass.KindNil:
		return "nil"
	case klass.KindArray:
		elems := v.Array()
		parts := make([]string, len(elems))
		for i, elem := range elems {
			parts[i] = inspect(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return v.String()
	}
}

// inspect is display with strings quoted.
func inspect(v klass.Value) string {
	if v.Kind() == klass.KindString {
		return fmt.Sprintf("%q", v.String())
	}
	return display(v)
}

// Inspect formats a value the way the REPL echoes results.
func Inspect(v klass.Value) string { return inspect(v) }

func (s *Session) errorf(fr *frame, pos Position, format string, args ...any) error {
	return &RuntimeError{Pos: pos, Msg: fmt.Sprintf(format, args...), source: fr.source}
}

// wrap attaches a position to an engine error. Errors that already carry a
// position pass through unchanged.
func (s *Session) wrap(fr *frame, pos Position, err error) error {
	if err == nil {
		return nil
	}
	var rtErr *RuntimeError
	if errors.As(err, &rtErr) {
		return err
	}
	return &RuntimeError{Pos: pos, Err: err, source: fr.source}
}
