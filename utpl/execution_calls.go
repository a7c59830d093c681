package utpl

func (exec *Execution) evalCallExpr(e *CallExpr, env *Env) (Value, error) {
	callee, err := exec.evalExpression(e.Callee, env)
	if err != nil {
		return NewNull(), err
	}

	args := make([]Value, len(e.Args))
	for i, argExpr := range e.Args {
		arg, err := exec.evalExpression(argExpr, env)
		if err != nil {
			return NewNull(), err
		}
		args[i] = arg
	}

	switch callee.Kind() {
	case KindFunction:
		return exec.callFunction(callee.Function(), args, e.Pos())
	case KindBuiltin:
		return exec.callBuiltin(callee.Builtin(), args, e.Pos())
	default:
		return NewNull(), exec.errorAt(e.Pos(), "%s value is not callable", callee.Kind())
	}
}

// callFunction invokes a template-defined closure. Parameters bind
// positionally: missing arguments become null and surplus arguments are
// dropped. The body runs with a fresh loop depth so break or continue inside
// a function cannot reach into a loop at the call site.
func (exec *Execution) callFunction(fn *Function, args []Value, pos Position) (Value, error) {
	name := fn.Name
	if name == "" {
		name = "<anonymous>"
	}
	if err := exec.pushFrame(name, pos); err != nil {
		return NewNull(), err
	}
	defer exec.popFrame()

	callEnv := newEnv(fn.Env)
	for i, param := range fn.Params {
		if i < len(args) {
			callEnv.Define(param, args[i])
		} else {
			callEnv.Define(param, NewNull())
		}
	}

	savedDepth := exec.loopDepth
	exec.loopDepth = 0
	defer func() { exec.loopDepth = savedDepth }()

	val, returned, err := exec.evalStatement(fn.Body, callEnv)
	if err != nil {
		return NewNull(), err
	}
	if !returned {
		return NewNull(), nil
	}
	return val, nil
}

func (exec *Execution) callBuiltin(b *Builtin, args []Value, pos Position) (Value, error) {
	if err := exec.pushFrame(b.Name, pos); err != nil {
		return NewNull(), err
	}
	defer exec.popFrame()

	call := &CallContext{exec: exec, name: b.Name, args: args, pos: pos}
	val, err := b.Fn(call)
	if err != nil {
		return NewNull(), exec.wrapError(err, pos)
	}
	return val, nil
}

func (exec *Execution) evalAssignExpr(e *AssignExpr, env *Env) (Value, error) {
	val, err := exec.evalExpression(e.Value, env)
	if err != nil {
		return NewNull(), err
	}

	switch target := e.Target.(type) {
	case *Identifier:
		if e.Op != tokenAssign {
			old, _ := env.Get(target.Name)
			val = applyBinaryOp(e.Op, old, val)
		}
		env.Assign(target.Name, val)
		return val, nil

	case *MemberExpr:
		obj, err := exec.evalExpression(target.Object, env)
		if err != nil {
			return NewNull(), err
		}
		if obj.Kind() != KindObject {
			return NewNull(), exec.errorAt(target.Pos(), "cannot assign to property of %s value", obj.Kind())
		}
		if e.Op != tokenAssign {
			old, _ := obj.Object().Get(target.Property)
			val = applyBinaryOp(e.Op, old, val)
		}
		obj.Object().Set(target.Property, val)
		return val, nil

	case *IndexExpr:
		obj, err := exec.evalExpression(target.Object, env)
		if err != nil {
			return NewNull(), err
		}
		idx, err := exec.evalExpression(target.Index, env)
		if err != nil {
			return NewNull(), err
		}
		return exec.assignIndexed(obj, idx, e.Op, val, target.Pos())

	default:
		return NewNull(), exec.errorAt(e.Pos(), "invalid assignment target")
	}
}

// assignIndexed writes through an index expression. Array writes past the end
// grow the array with nulls; negative indices count from the end and must
// land inside the current length.
func (exec *Execution) assignIndexed(obj, idx Value, op TokenType, val Value, pos Position) (Value, error) {
	switch obj.Kind() {
	case KindArray:
		arr := obj.Array()
		i := toInt64(idx)
		if i < 0 {
			i += int64(len(arr.Items))
		}
		if i < 0 {
			return NewNull(), exec.errorAt(pos, "array index %d out of range", toInt64(idx))
		}
		for int64(len(arr.Items)) <= i {
			arr.Items = append(arr.Items, NewNull())
		}
		if op != tokenAssign {
			val = applyBinaryOp(op, arr.Items[i], val)
		}
		arr.Items[i] = val
		return val, nil

	case KindObject:
		key := idx.String()
		if op != tokenAssign {
			old, _ := obj.Object().Get(key)
			val = applyBinaryOp(op, old, val)
		}
		obj.Object().Set(key, val)
		return val, nil

	default:
		return NewNull(), exec.errorAt(pos, "cannot assign to index of %s value", obj.Kind())
	}
}
