package catalog

import (
	"fmt"
	"strings"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/roach88/storefront/internal/model"
)

// Filter is a compiled boolean expression over product fields.
//
// Available variables: id, title, price, description, category, image.
// Example: price < 20 && category == "jewelery"
type Filter struct {
	expression string
	program    *exprvm.Program
}

// CompileFilter compiles expression. It must evaluate to a bool.
func CompileFilter(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("compile filter: expression must not be empty")
	}

	program, err := exprlang.Compile(expression,
		exprlang.Env(productEnv(model.Product{})),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expression, err)
	}
	return &Filter{expression: expression, program: program}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expression
}

// Match reports whether p satisfies the filter.
func (f *Filter) Match(p model.Product) (bool, error) {
	out, err := exprlang.Run(f.program, productEnv(p))
	if err != nil {
		return false, fmt.Errorf("evaluate filter %q: %w", f.expression, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// Apply returns the products matching the filter, in order.
func (f *Filter) Apply(products []model.Product) ([]model.Product, error) {
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		ok, err := f.Match(p)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func productEnv(p model.Product) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"title":       p.Title,
		"price":       p.Price,
		"description": p.Description,
		"category":    p.Category,
		"image":       p.Image,
	}
}
