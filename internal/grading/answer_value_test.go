package grading

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeScalarForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"json string", `"B"`, "B"},
		{"bare letter", `B`, "B"},
		{"padded bare text", `  B  `, "B"},
		{"number", `42.5`, "42.5"},
		{"integer keeps no decimals", `42`, "42"},
		{"bool", `true`, "true"},
		{"null", `null`, ""},
		{"empty", ``, ""},
		{"invalid json kept raw", `{"broken`, `{"broken`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := Decode(json.RawMessage(tc.raw))
			assert.Equal(t, tc.want, v.Scalar())
		})
	}
}

func TestDecodeList(t *testing.T) {
	v := Decode(json.RawMessage(`["A","C",2]`))
	assert.Equal(t, []string{"A", "C", "2"}, v.List())

	// scalar coerces to a one-element list
	v = Decode(json.RawMessage(`"A"`))
	assert.Equal(t, []string{"A"}, v.List())

	v = Decode(json.RawMessage(`""`))
	assert.Nil(t, v.List())
}

func TestDecodeMapping(t *testing.T) {
	v := Decode(json.RawMessage(`{"row1":"yes","row2":"no"}`))
	assert.Equal(t, map[string]string{"row1": "yes", "row2": "no"}, v.Mapping())

	// set-valued cells canonicalise order-insensitively
	a := Decode(json.RawMessage(`{"bucket":["x","y"]}`)).Mapping()
	b := Decode(json.RawMessage(`{"bucket":["y","x"]}`)).Mapping()
	assert.Equal(t, a, b)
}

func TestDecodeBowtieParts(t *testing.T) {
	v := Decode(json.RawMessage(`{"condition":"X","findings":["F1","F2"],"actions":["A1"]}`))
	condition, findings, actions, ok := v.BowtieParts()
	assert.True(t, ok)
	assert.Equal(t, "X", condition)
	assert.Equal(t, []string{"F1", "F2"}, findings)
	assert.Equal(t, []string{"A1"}, actions)

	_, _, _, ok = Decode(json.RawMessage(`["A","B"]`)).BowtieParts()
	assert.False(t, ok)
}

func TestDecodeFlatBowtie(t *testing.T) {
	// all-scalar bow-tie objects decode as mappings but still expose parts
	v := Decode(json.RawMessage(`{"condition":"X"}`))
	condition, _, _, ok := v.BowtieParts()
	assert.True(t, ok)
	assert.Equal(t, "X", condition)
}

func TestNumber(t *testing.T) {
	n, ok := Decode(json.RawMessage(`51.5`)).Number()
	assert.True(t, ok)
	assert.Equal(t, 51.5, n)

	n, ok = Decode(json.RawMessage(`"51.5"`)).Number()
	assert.True(t, ok)
	assert.Equal(t, 51.5, n)

	_, ok = Decode(json.RawMessage(`"two tabs"`)).Number()
	assert.False(t, ok)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, Decode(json.RawMessage(``)).IsEmpty())
	assert.True(t, Decode(json.RawMessage(`""`)).IsEmpty())
	assert.True(t, Decode(json.RawMessage(`[]`)).IsEmpty())
	assert.True(t, Decode(json.RawMessage(`{}`)).IsEmpty())
	assert.False(t, Decode(json.RawMessage(`"B"`)).IsEmpty())
	assert.False(t, Decode(json.RawMessage(`["B"]`)).IsEmpty())
}
