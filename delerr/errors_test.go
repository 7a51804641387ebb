package delerr_test

import (
	"errors"
	"io/fs"
	"testing"

	"martianoff/delegen/delerr"

	"github.com/stretchr/testify/assert"
)

func TestSyntaxError(t *testing.T) {
	err := delerr.NewSyntaxError(delerr.Pos{Line: 10, Column: 5}, "unexpected token")
	assert.Equal(t, delerr.TypeSyntax, err.Type())
	assert.Equal(t, 10, err.Pos.Line)
	assert.Equal(t, 5, err.Pos.Column)
	assert.Equal(t, "[SyntaxError] line 10:5 unexpected token", err.Error())
}

func TestSpecErrorsNameTheKey(t *testing.T) {
	tests := []struct {
		name string
		err  *delerr.Error
		want string
	}{
		{"missing", delerr.NewMissingKey("to"), "[SpecError] missing key `to`"},
		{"duplicate", delerr.NewDuplicateKey(delerr.Pos{}, "target"), "[SpecError] duplicate key `target`"},
		{"unknown", delerr.NewUnknownKey(delerr.Pos{}, "trait"), "[SpecError] unknown key `trait`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, delerr.TypeSpec, tt.err.Type())
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorInFile(t *testing.T) {
	err := delerr.NewInterfaceNotFound(delerr.Pos{Line: 3, Column: 14}, "Foo").InFile("spec.dg")
	assert.Equal(t, delerr.TypeResolve, err.Type())
	assert.Equal(t, "Foo", err.Key)
	assert.Equal(t, "[ResolveError] spec.dg:3:14 interface `Foo` not found", err.Error())
}

func TestAtKeepsExistingPosition(t *testing.T) {
	err := delerr.NewSyntaxError(delerr.Pos{Line: 2, Column: 1}, "x")
	moved := err.At(delerr.Pos{Line: 9, Column: 9})
	assert.Equal(t, 2, moved.Pos.Line)

	unanchored := delerr.NewMissingKey("traits").At(delerr.Pos{Line: 1, Column: 1})
	assert.Equal(t, 1, unanchored.Pos.Line)
}

func TestGenericErrors(t *testing.T) {
	arity := delerr.NewArityMismatch(delerr.Pos{}, "Iter", 2, 1)
	assert.Equal(t, delerr.TypeGeneric, arity.Type())
	assert.Contains(t, arity.Error(), "expects 2 generic argument(s), found 1")

	kind := delerr.NewKindMismatch(delerr.Pos{}, "Iter", 0, "lifetime", "type")
	assert.Contains(t, kind.Error(), "generic argument 1: expected lifetime, found type")
}

func TestIOErrorUnwraps(t *testing.T) {
	err := delerr.NewIOError(delerr.Pos{}, "missing.rs", fs.ErrNotExist)
	assert.Equal(t, delerr.TypeIO, err.Type())
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "could not open file \"missing.rs\"")
}
