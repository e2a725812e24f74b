package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/model"
)

var filterProducts = []model.Product{
	{ID: 1, Title: "Backpack", Price: 109.95, Category: "men's clothing"},
	{ID: 5, Title: "Bracelet", Price: 695, Category: "jewelery"},
	{ID: 6, Title: "Petite Micropave", Price: 9.99, Category: "jewelery"},
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		expression string
		want       []int
	}{
		{`price < 20 && category == "jewelery"`, []int{6}},
		{`category == "jewelery"`, []int{5, 6}},
		{`title contains "pack"`, []int{1}},
		{`id in [1, 6]`, []int{1, 6}},
		{`price > 1000`, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			f, err := CompileFilter(tt.expression)
			require.NoError(t, err)
			assert.Equal(t, tt.expression, f.String())

			got, err := f.Apply(filterProducts)
			require.NoError(t, err)

			ids := make([]int, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestCompileFilter_Errors(t *testing.T) {
	for _, expression := range []string{
		"",
		"   ",
		`price +`,
		`price * 2`,
		`unknown_field == 1`,
	} {
		_, err := CompileFilter(expression)
		assert.Error(t, err, "expression %q", expression)
	}
}
