package ecs

import (
	"fmt"
	"reflect"
)

// TypeOf returns the reflect.Type of T, for passing to NewSmallWorld's
// declared component list.
func TypeOf[T any]() reflect.Type {
	var zero T
	return reflect.TypeOf(zero)
}

// componentIDOf resolves T's declared position in w's component list. It
// panics if T was never passed to NewSmallWorld: emplace/erase/get on an
// undeclared component type is a contract violation the C++ predecessor
// caught at compile time via a template constraint, which a runtime
// registry lookup is the idiomatic Go substitute for.
func componentIDOf[T any](w *SmallWorld) int {
	t := TypeOf[T]()
	id, ok := w.registry[t]
	if !ok {
		panic(fmt.Sprintf("ecs: component type %s was not declared to NewSmallWorld", t))
	}
	return id
}

// column type-asserts archetype a's column at id back to []T. It panics if
// id is not T's column, which only happens on an internal bookkeeping bug
// since callers always pair an id from componentIDOf[T] with column[T].
func column[T any](a *Archetype, id int) []T {
	if a.columns[id] == nil {
		return nil
	}
	return a.columns[id].([]T)
}

// growColumn appends one zero-valued element to col (a reflect-boxed slice
// of element type t), growing the backing array 1.5x when the current
// capacity is exhausted, with a floor of 2 — the archetype table's raw
// byte buffer growth policy translated to reflect.Value slices.
func growColumn(col any, t reflect.Type) any {
	if col == nil {
		s := reflect.MakeSlice(reflect.SliceOf(t), 0, 2)
		return reflect.Append(s, reflect.Zero(t)).Interface()
	}

	v := reflect.ValueOf(col)
	length, capacity := v.Len(), v.Cap()
	if length < capacity {
		return reflect.Append(v, reflect.Zero(t)).Interface()
	}

	newCap := capacity + capacity/2
	if newCap < 2 {
		newCap = 2
	}
	grown := reflect.MakeSlice(reflect.SliceOf(t), length, newCap)
	reflect.Copy(grown, v)
	return reflect.Append(grown, reflect.Zero(t)).Interface()
}

// copyElement copies srcCol[srcRow] into dstCol[dstRow]. Both must already
// hold the same element type and dstRow must be within dstCol's length.
func copyElement(dstCol, srcCol any, dstRow, srcRow int) {
	dv := reflect.ValueOf(dstCol)
	sv := reflect.ValueOf(srcCol)
	dv.Index(dstRow).Set(sv.Index(srcRow))
}

// swapPopElement moves col[last] into col[row] and truncates the slice by
// one element.
func swapPopElement(col any, row, last int) any {
	v := reflect.ValueOf(col)
	if row != last {
		v.Index(row).Set(v.Index(last))
	}
	return v.Slice(0, last).Interface()
}
