package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed product.cue
var productSchemaSource string

// Schema validates products API bodies against the embedded CUE definitions.
//
// cue values are not safe for concurrent use, so every validation holds mu.
type Schema struct {
	mu       sync.Mutex
	ctx      *cue.Context
	product  cue.Value
	products cue.Value
}

// NewSchema compiles the embedded schema.
func NewSchema() (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(productSchemaSource, cue.Filename("product.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile product schema: %w", err)
	}

	s := &Schema{
		ctx:      ctx,
		product:  v.LookupPath(cue.ParsePath("#Product")),
		products: v.LookupPath(cue.ParsePath("#Products")),
	}
	if !s.product.Exists() || !s.products.Exists() {
		return nil, fmt.Errorf("compile product schema: missing #Product or #Products")
	}
	return s, nil
}

// ValidateProduct checks a single-product body.
func (s *Schema) ValidateProduct(body []byte) error {
	return s.validate("#Product", s.product, body)
}

// ValidateProducts checks a product-list body.
func (s *Schema) ValidateProducts(body []byte) error {
	return s.validate("#Products", s.products, body)
}

func (s *Schema) validate(name string, def cue.Value, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expr, err := cuejson.Extract("response.json", body)
	if err != nil {
		return &SchemaError{Definition: name, Err: err}
	}
	data := s.ctx.BuildExpr(expr)
	if err := data.Err(); err != nil {
		return &SchemaError{Definition: name, Err: err}
	}

	if err := def.Unify(data).Validate(cue.Concrete(true)); err != nil {
		return &SchemaError{Definition: name, Err: err}
	}
	return nil
}
