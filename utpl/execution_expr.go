package utpl

// evalExpression walks one expression node.
func (exec *Execution) evalExpression(expr Expression, env *Env) (Value, error) {
	if err := exec.step(); err != nil {
		return NewNull(), err
	}

	switch e := expr.(type) {
	case *Identifier:
		val, ok := env.Get(e.Name)
		if !ok {
			return NewNull(), nil
		}
		return val, nil
	case *IntLiteral:
		return NewInt(e.Value), nil
	case *DoubleLiteral:
		return NewDouble(e.Value), nil
	case *StringLiteral:
		return NewString(e.Value), nil
	case *BoolLiteral:
		return NewBool(e.Value), nil
	case *NullLiteral:
		return NewNull(), nil
	case *ArrayLiteral:
		items := make([]Value, len(e.Elements))
		for i, el := range e.Elements {
			val, err := exec.evalExpression(el, env)
			if err != nil {
				return NewNull(), err
			}
			items[i] = val
		}
		return NewArray(items), nil
	case *ObjectLiteral:
		obj := NewObject()
		for _, pair := range e.Pairs {
			val, err := exec.evalExpression(pair.Value, env)
			if err != nil {
				return NewNull(), err
			}
			obj.Object().Set(pair.Key, val)
		}
		return obj, nil
	case *FunctionLiteral:
		fn := &Function{Name: e.Name, Params: e.Params, Body: e.Body, Env: env}
		return NewFunction(fn), nil
	case *UnaryExpr:
		return exec.evalUnaryExpr(e, env)
	case *BinaryExpr:
		return exec.evalBinaryExpr(e, env)
	case *TernaryExpr:
		cond, err := exec.evalExpression(e.Condition, env)
		if err != nil {
			return NewNull(), err
		}
		if cond.Truthy() {
			return exec.evalExpression(e.Then, env)
		}
		return exec.evalExpression(e.Else, env)
	case *AssignExpr:
		return exec.evalAssignExpr(e, env)
	case *CallExpr:
		return exec.evalCallExpr(e, env)
	case *MemberExpr:
		obj, err := exec.evalExpression(e.Object, env)
		if err != nil {
			return NewNull(), err
		}
		return exec.getMember(obj, e.Property), nil
	case *IndexExpr:
		return exec.evalIndexExpr(e, env)
	default:
		return NewNull(), exec.errorAt(expr.Pos(), "unsupported expression")
	}
}

// getMember reads a named property. Missing keys and non-object receivers
// yield null; coercion-style reads never error.
func (exec *Execution) getMember(obj Value, property string) Value {
	if obj.Kind() != KindObject {
		return NewNull()
	}
	if val, ok := obj.Object().Get(property); ok {
		return val
	}
	return NewNull()
}

func (exec *Execution) evalIndexExpr(e *IndexExpr, env *Env) (Value, error) {
	obj, err := exec.evalExpression(e.Object, env)
	if err != nil {
		return NewNull(), err
	}
	idx, err := exec.evalExpression(e.Index, env)
	if err != nil {
		return NewNull(), err
	}

	switch obj.Kind() {
	case KindArray:
		items := obj.Array().Items
		i := toInt64(idx)
		if i < 0 {
			i += int64(len(items))
		}
		if i < 0 || i >= int64(len(items)) {
			return NewNull(), nil
		}
		return items[i], nil
	case KindObject:
		return exec.getMember(obj, idx.String()), nil
	case KindString:
		s := obj.Str()
		i := toInt64(idx)
		if i < 0 {
			i += int64(len(s))
		}
		if i < 0 || i >= int64(len(s)) {
			return NewNull(), nil
		}
		return NewString(s[i : i+1]), nil
	default:
		return NewNull(), nil
	}
}
