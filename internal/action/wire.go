package action

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/roach88/storefront/internal/model"
)

// Decode parses a wire action of the form {"type": "...", "payload": ...}.
//
// The payload is checked against the shape its type requires. Any mismatch
// (wrong JSON kind, fractional counts, unknown type) returns a
// *MalformedError; callers drop such actions without touching state.
func Decode(raw []byte) (Action, error) {
	if !gjson.ValidBytes(raw) {
		return nil, malformed("", "invalid JSON")
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, malformed("", "action must be a JSON object")
	}

	typ := root.Get("type")
	if typ.Type != gjson.String {
		return nil, malformed("", "type must be a string")
	}
	t := Type(typ.Str)
	payload := root.Get("payload")

	switch t {
	case TypeIncrementCount, TypeDecrementCount:
		n, ok := integer(payload)
		if !ok {
			return nil, malformed(t, "payload must be an integer")
		}
		if t == TypeIncrementCount {
			return IncrementCount{By: n}, nil
		}
		return DecrementCount{By: n}, nil

	case TypeSaveUser:
		if !payload.IsObject() {
			return nil, malformed(t, "payload must be an object")
		}
		var u model.User
		if err := json.Unmarshal([]byte(payload.Raw), &u); err != nil {
			return nil, malformed(t, "payload: %v", err)
		}
		return SaveUser{User: u}, nil

	case TypeLoadProducts:
		if !payload.IsArray() {
			return nil, malformed(t, "payload must be an array")
		}
		products := []model.Product{}
		if err := json.Unmarshal([]byte(payload.Raw), &products); err != nil {
			return nil, malformed(t, "payload: %v", err)
		}
		return LoadProducts{Products: products}, nil

	case TypeSetLoading:
		if !payload.IsBool() {
			return nil, malformed(t, "payload must be a boolean")
		}
		return SetLoading{Loading: payload.Bool()}, nil

	case TypeSetError:
		switch payload.Type {
		case gjson.Null:
			return SetError{}, nil
		case gjson.String:
			msg := payload.Str
			return SetError{Message: &msg}, nil
		}
		return nil, malformed(t, "payload must be a string or null")

	case TypeAddToCart:
		product := payload.Get("product")
		if !payload.IsObject() || !product.IsObject() {
			return nil, malformed(t, "payload must contain a product object")
		}
		qty, ok := integer(payload.Get("quantity"))
		if !ok {
			return nil, malformed(t, "quantity must be an integer")
		}
		var p model.Product
		if err := json.Unmarshal([]byte(product.Raw), &p); err != nil {
			return nil, malformed(t, "product: %v", err)
		}
		return AddToCart{Product: p, Quantity: qty}, nil

	case TypeRemoveFromCart:
		id, ok := integer(payload)
		if !ok {
			return nil, malformed(t, "payload must be a product id")
		}
		return RemoveFromCart{ProductID: id}, nil

	case TypeUpdateQuantity:
		if !payload.IsObject() {
			return nil, malformed(t, "payload must be an object")
		}
		id, ok := integer(payload.Get("productId"))
		if !ok {
			return nil, malformed(t, "productId must be an integer")
		}
		qty, ok := integer(payload.Get("quantity"))
		if !ok {
			return nil, malformed(t, "quantity must be an integer")
		}
		return UpdateQuantity{ProductID: id, Quantity: qty}, nil

	case TypeClearCart:
		return ClearCart{}, nil
	}

	return nil, malformed(t, "unknown action type")
}

// integer extracts an integral JSON number.
func integer(r gjson.Result) (int, bool) {
	if r.Type != gjson.Number {
		return 0, false
	}
	if r.Num != math.Trunc(r.Num) || math.Abs(r.Num) > math.MaxInt32 {
		return 0, false
	}
	return int(r.Num), true
}

// Encode renders an action in its wire form.
func Encode(a Action) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("encode action: nil action")
	}
	out, err := sjson.SetBytes([]byte(`{}`), "type", string(a.Type()))
	if err != nil {
		return nil, fmt.Errorf("encode action: %w", err)
	}

	set := func(path string, v any) {
		if err != nil {
			return
		}
		out, err = sjson.SetBytes(out, path, v)
	}

	switch v := a.(type) {
	case IncrementCount:
		set("payload", v.By)
	case DecrementCount:
		set("payload", v.By)
	case SaveUser:
		set("payload", v.User)
	case LoadProducts:
		set("payload", v.Products)
	case SetLoading:
		set("payload", v.Loading)
	case SetError:
		if v.Message == nil {
			set("payload", nil)
		} else {
			set("payload", *v.Message)
		}
	case AddToCart:
		set("payload.product", v.Product)
		set("payload.quantity", v.Quantity)
	case RemoveFromCart:
		set("payload", v.ProductID)
	case UpdateQuantity:
		set("payload.productId", v.ProductID)
		set("payload.quantity", v.Quantity)
	case ClearCart:
	default:
		return nil, fmt.Errorf("encode action: unsupported type %T", a)
	}

	if err != nil {
		return nil, fmt.Errorf("encode action %s: %w", a.Type(), err)
	}
	return out, nil
}
