package vm

import (
	"frog/internal/bigint"
	"frog/internal/heap"
)

func (vm *Interpreter) addValues(l, r heap.Value) (heap.Value, error) {
	if l.Kind() == heap.KindInt && r.Kind() == heap.KindInt {
		li, _ := l.Int()
		ri, _ := r.Int()
		sum, err := bigint.Add(li, ri)
		if err != nil {
			return heap.Value{}, err
		}
		return heap.NewInt(sum), nil
	}
	if l.Kind() == heap.KindFloat && r.Kind() == heap.KindFloat {
		lf, _ := l.Float()
		rf, _ := r.Float()
		return heap.NewFloat(lf + rf), nil
	}
	if l.Kind() == heap.KindString && r.Kind() == heap.KindString {
		guard := vm.pushTempRoots(l, r)
		defer guard.release()

		ls, _ := l.StringObj()
		rs, _ := r.StringObj()
		obj := vm.heap.AllocateString(ls.Value+rs.Value, vm.Roots())
		return heap.NewString(obj), nil
	}
	return heap.Value{}, runtimeErrorKind(ErrTypeMismatch, "ADD type mismatch")
}

func (vm *Interpreter) subValues(l, r heap.Value) (heap.Value, error) {
	if l.Kind() == heap.KindInt && r.Kind() == heap.KindInt {
		li, _ := l.Int()
		ri, _ := r.Int()
		diff, err := bigint.Sub(li, ri)
		if err != nil {
			return heap.Value{}, err
		}
		return heap.NewInt(diff), nil
	}
	if l.Kind() == heap.KindFloat && r.Kind() == heap.KindFloat {
		lf, _ := l.Float()
		rf, _ := r.Float()
		return heap.NewFloat(lf - rf), nil
	}
	return heap.Value{}, runtimeErrorKind(ErrTypeMismatch, "SUB type mismatch")
}

func (vm *Interpreter) mulValues(l, r heap.Value) (heap.Value, error) {
	if l.Kind() == heap.KindInt && r.Kind() == heap.KindInt {
		li, _ := l.Int()
		ri, _ := r.Int()
		prod, err := bigint.Mul(li, ri)
		if err != nil {
			return heap.Value{}, err
		}
		return heap.NewInt(prod), nil
	}
	if l.Kind() == heap.KindFloat && r.Kind() == heap.KindFloat {
		lf, _ := l.Float()
		rf, _ := r.Float()
		return heap.NewFloat(lf * rf), nil
	}
	return heap.Value{}, runtimeErrorKind(ErrTypeMismatch, "MUL type mismatch")
}

func (vm *Interpreter) divValues(l, r heap.Value) (heap.Value, error) {
	if l.Kind() == heap.KindInt && r.Kind() == heap.KindInt {
		li, _ := l.Int()
		ri, _ := r.Int()
		if ri.IsZero() {
			return heap.Value{}, runtimeErrorKind(ErrDivisionByZero, "division by zero")
		}
		q, _, err := bigint.QuoRem(li, ri)
		if err != nil {
			return heap.Value{}, err
		}
		return heap.NewInt(q), nil
	}
	if l.Kind() == heap.KindFloat && r.Kind() == heap.KindFloat {
		lf, _ := l.Float()
		rf, _ := r.Float()
		if rf == 0.0 {
			return heap.Value{}, runtimeErrorKind(ErrDivisionByZero, "division by zero")
		}
		return heap.NewFloat(lf / rf), nil
	}
	return heap.Value{}, runtimeErrorKind(ErrTypeMismatch, "DIV type mismatch")
}

func (vm *Interpreter) modValues(l, r heap.Value) (heap.Value, error) {
	if l.Kind() == heap.KindInt && r.Kind() == heap.KindInt {
		li, _ := l.Int()
		ri, _ := r.Int()
		if ri.IsZero() {
			return heap.Value{}, runtimeErrorKind(ErrDivisionByZero, "modulo by zero")
		}
		_, rem, err := bigint.QuoRem(li, ri)
		if err != nil {
			return heap.Value{}, err
		}
		return heap.NewInt(rem), nil
	}
	return heap.Value{}, runtimeErrorKind(ErrTypeMismatch, "MOD requires int")
}

func (vm *Interpreter) negValue(v heap.Value) (heap.Value, error) {
	if v.Kind() == heap.KindInt {
		i, _ := v.Int()
		return heap.NewInt(i.Neg()), nil
	}
	if v.Kind() == heap.KindFloat {
		f, _ := v.Float()
		return heap.NewFloat(-f), nil
	}
	return heap.Value{}, runtimeErrorKind(ErrTypeMismatch, "NEG type mismatch")
}

func (vm *Interpreter) eqValues(l, r heap.Value) (bool, error) {
	if l.Kind() != r.Kind() {
		return false, runtimeErrorKind(ErrTypeMismatch, "EQ type mismatch")
	}
	switch l.Kind() {
	case heap.KindNull:
		return true, nil
	case heap.KindInt:
		li, _ := l.Int()
		ri, _ := r.Int()
		return bigint.Equal(li, ri), nil
	case heap.KindFloat:
		lf, _ := l.Float()
		rf, _ := r.Float()
		return lf == rf, nil
	case heap.KindBool:
		lb, _ := l.Bool()
		rb, _ := r.Bool()
		return lb == rb, nil
	case heap.KindString:
		ls, _ := l.StringObj()
		rs, _ := r.StringObj()
		return ls.Value == rs.Value, nil
	case heap.KindArray:
		la, _ := l.ArrayObj()
		ra, _ := r.ArrayObj()
		return la == ra, nil
	default:
		return true, nil
	}
}

// neqValues deliberately reuses eqValues' error, matching the
// reference's negate-the-equality-check behavior exactly.
func (vm *Interpreter) neqValues(l, r heap.Value) (bool, error) {
	eq, err := vm.eqValues(l, r)
	if err != nil {
		return false, err
	}
	return !eq, nil
}

func (vm *Interpreter) ltValues(l, r heap.Value) (bool, error) {
	if l.Kind() != r.Kind() {
		return false, runtimeErrorKind(ErrTypeMismatch, "LT type mismatch")
	}
	switch l.Kind() {
	case heap.KindInt:
		li, _ := l.Int()
		ri, _ := r.Int()
		return bigint.Less(li, ri), nil
	case heap.KindFloat:
		lf, _ := l.Float()
		rf, _ := r.Float()
		return lf < rf, nil
	default:
		return false, runtimeErrorKind(ErrTypeMismatch, "LT requires numeric")
	}
}

func (vm *Interpreter) leValues(l, r heap.Value) (bool, error) {
	if l.Kind() != r.Kind() {
		return false, runtimeErrorKind(ErrTypeMismatch, "LE type mismatch")
	}
	switch l.Kind() {
	case heap.KindInt:
		li, _ := l.Int()
		ri, _ := r.Int()
		return bigint.LessEqual(li, ri), nil
	case heap.KindFloat:
		lf, _ := l.Float()
		rf, _ := r.Float()
		return lf <= rf, nil
	default:
		return false, runtimeErrorKind(ErrTypeMismatch, "LE requires numeric")
	}
}

func (vm *Interpreter) gtValues(l, r heap.Value) (bool, error) {
	if l.Kind() != r.Kind() {
		return false, runtimeErrorKind(ErrTypeMismatch, "GT type mismatch")
	}
	switch l.Kind() {
	case heap.KindInt:
		li, _ := l.Int()
		ri, _ := r.Int()
		return bigint.Greater(li, ri), nil
	case heap.KindFloat:
		lf, _ := l.Float()
		rf, _ := r.Float()
		return lf > rf, nil
	default:
		return false, runtimeErrorKind(ErrTypeMismatch, "GT requires numeric")
	}
}

func (vm *Interpreter) geValues(l, r heap.Value) (bool, error) {
	if l.Kind() != r.Kind() {
		return false, runtimeErrorKind(ErrTypeMismatch, "GE type mismatch")
	}
	switch l.Kind() {
	case heap.KindInt:
		li, _ := l.Int()
		ri, _ := r.Int()
		return bigint.GreaterEqual(li, ri), nil
	case heap.KindFloat:
		lf, _ := l.Float()
		rf, _ := r.Float()
		return lf >= rf, nil
	default:
		return false, runtimeErrorKind(ErrTypeMismatch, "GE requires numeric")
	}
}

func (vm *Interpreter) andValues(l, r heap.Value) (bool, error) {
	lb, err := l.Bool()
	if err != nil {
		return false, runtimeErrorKind(ErrTypeMismatch, "AND requires bool")
	}
	rb, err := r.Bool()
	if err != nil {
		return false, runtimeErrorKind(ErrTypeMismatch, "AND requires bool")
	}
	return lb && rb, nil
}

func (vm *Interpreter) orValues(l, r heap.Value) (bool, error) {
	lb, err := l.Bool()
	if err != nil {
		return false, runtimeErrorKind(ErrTypeMismatch, "OR requires bool")
	}
	rb, err := r.Bool()
	if err != nil {
		return false, runtimeErrorKind(ErrTypeMismatch, "OR requires bool")
	}
	return lb || rb, nil
}

func (vm *Interpreter) notValue(v heap.Value) (bool, error) {
	b, err := v.Bool()
	if err != nil {
		return false, runtimeErrorKind(ErrTypeMismatch, "NOT requires bool")
	}
	return !b, nil
}
