package flatten

import (
	"testing"

	"github.com/ohler55/ojg/jp"
	"github.com/stretchr/testify/assert"
	gtassert "gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"
)

type inner struct {
	Gear  int
	Label string
}

type sample struct {
	Speed  int
	Wheels [2]int
	Car    inner
	Tagged string `json:"name"`
}

func TestFlatten(t *testing.T) {
	got := Flatten(sample{Speed: 280, Wheels: [2]int{1, 2}, Car: inner{Gear: 7, Label: "x"}, Tagged: "Norris"})
	keys := make([]string, 0, len(got))
	values := map[string]any{}
	for _, e := range got {
		keys = append(keys, e.Key)
		values[e.Key] = e.Value
	}
	assert.Equal(t, []string{"Car.Gear", "Car.Label", "Speed", "Wheels[0]", "Wheels[1]", "name"}, keys)
	assert.EqualValues(t, 280, values["Speed"])
	assert.EqualValues(t, 2, values["Wheels[1]"])
	assert.Equal(t, "Norris", values["name"])
}

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		path jp.Expr
		want string
	}{
		{"root", jp.R(), ""},
		{"child", jp.R().C("a").C("b"), "a.b"},
		{"nth", jp.R().C("cars").N(3).C("gear"), "cars[3].gear"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gtassert.Equal(t, Key(tt.path), tt.want)
		})
	}
}

func TestEntryString(t *testing.T) {
	gtassert.Equal(t, Entry{Key: "a.b", Value: 3}.String(), "a.b=3")
}

func TestJSON(t *testing.T) {
	got := JSON(inner{Gear: 3, Label: "l"}, 0)
	gtassert.Assert(t, cmp.Contains(got, `"Gear":3`))
	gtassert.Assert(t, cmp.Contains(got, `"Label":"l"`))
}
