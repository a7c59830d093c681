package utpl

import (
	"errors"
)

// evalForStatement runs the three-clause loop: init once, body while the
// condition is truthy (an absent condition is always true), step after each
// iteration. A local init clause gets its own loop frame.
func (exec *Execution) evalForStatement(stmt *ForStmt, env *Env) (Value, bool, error) {
	loopEnv := env
	if _, isLocal := stmt.Init.(*LocalStmt); isLocal {
		loopEnv = newEnv(env)
	}

	if stmt.Init != nil {
		if _, _, err := exec.evalStatement(stmt.Init, loopEnv); err != nil {
			return NewNull(), false, err
		}
	}

	exec.loopDepth++
	defer func() { exec.loopDepth-- }()

	for {
		if err := exec.step(); err != nil {
			return NewNull(), false, err
		}

		if stmt.Cond != nil {
			cond, err := exec.evalExpression(stmt.Cond, loopEnv)
			if err != nil {
				return NewNull(), false, err
			}
			if !cond.Truthy() {
				return NewNull(), false, nil
			}
		}

		if stmt.Body != nil {
			val, returned, err := exec.evalStatement(stmt.Body, loopEnv)
			if err != nil {
				if errors.Is(err, errLoopBreak) {
					return NewNull(), false, nil
				}
				if !errors.Is(err, errLoopContinue) {
					return NewNull(), false, err
				}
			}
			if returned {
				return val, true, nil
			}
		}

		if stmt.Step != nil {
			if _, err := exec.evalExpression(stmt.Step, loopEnv); err != nil {
				return NewNull(), false, err
			}
		}
	}
}

// evalForInStatement enumerates array items in index order or object keys in
// insertion order. The enumeration is snapshotted at loop entry, so mutating
// the collection during iteration cannot corrupt the walk.
func (exec *Execution) evalForInStatement(stmt *ForInStmt, env *Env) (Value, bool, error) {
	iterable, err := exec.evalExpression(stmt.Iterable, env)
	if err != nil {
		return NewNull(), false, err
	}

	loopEnv := env
	if stmt.Local {
		loopEnv = newEnv(env)
		loopEnv.Define(stmt.Name, NewNull())
	}

	bind := func(val Value) {
		if stmt.Local {
			loopEnv.Define(stmt.Name, val)
		} else {
			loopEnv.Assign(stmt.Name, val)
		}
	}

	exec.loopDepth++
	defer func() { exec.loopDepth-- }()

	runBody := func() (Value, bool, bool, error) {
		val, returned, err := exec.evalStatement(stmt.Body, loopEnv)
		if err != nil {
			if errors.Is(err, errLoopBreak) {
				return NewNull(), false, true, nil
			}
			if errors.Is(err, errLoopContinue) {
				return NewNull(), false, false, nil
			}
			return NewNull(), false, true, err
		}
		if returned {
			return val, true, true, nil
		}
		return NewNull(), false, false, nil
	}

	switch iterable.Kind() {
	case KindArray:
		items := make([]Value, len(iterable.Array().Items))
		copy(items, iterable.Array().Items)
		for _, item := range items {
			if err := exec.step(); err != nil {
				return NewNull(), false, err
			}
			bind(item)
			val, returned, stop, err := runBody()
			if err != nil || returned || stop {
				return val, returned, err
			}
		}
	case KindObject:
		for _, key := range iterable.Object().Keys() {
			if err := exec.step(); err != nil {
				return NewNull(), false, err
			}
			bind(NewString(key))
			val, returned, stop, err := runBody()
			if err != nil || returned || stop {
				return val, returned, err
			}
		}
	default:
		// Enumerating a non-container yields no iterations.
	}

	return NewNull(), false, nil
}
