package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/model"
)

func TestDecode_ValidActions(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Action
	}{
		{"increment", `{"type":"INCREMENT_COUNT","payload":2}`, IncrementCount{By: 2}},
		{"decrement", `{"type":"DECREMENT_COUNT","payload":-1}`, DecrementCount{By: -1}},
		{"save user", `{"type":"SAVE_USER","payload":{"name":"Ana","age":31}}`,
			SaveUser{User: model.User{Name: "Ana", Age: 31}}},
		{"load empty", `{"type":"LOAD_PRODUCTS","payload":[]}`, LoadProducts{Products: []model.Product{}}},
		{"set loading", `{"type":"SET_LOADING","payload":true}`, SetLoading{Loading: true}},
		{"clear error", `{"type":"SET_ERROR","payload":null}`, SetError{}},
		{"absent error", `{"type":"SET_ERROR"}`, SetError{}},
		{"remove", `{"type":"REMOVE_FROM_CART","payload":5}`, RemoveFromCart{ProductID: 5}},
		{"update", `{"type":"UPDATE_QUANTITY","payload":{"productId":5,"quantity":0}}`,
			UpdateQuantity{ProductID: 5, Quantity: 0}},
		{"clear", `{"type":"CLEAR_CART"}`, ClearCart{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_AddToCart(t *testing.T) {
	raw := `{"type":"ADD_TO_CART","payload":{"product":{"id":5,"title":"A","price":9.99,
		"description":"d","category":"c","image":"https://x/y.png","rating":{"rate":4}},"quantity":2}}`

	got, err := Decode([]byte(raw))
	require.NoError(t, err)

	add, ok := got.(AddToCart)
	require.True(t, ok)
	assert.Equal(t, 5, add.Product.ID)
	assert.Equal(t, 9.99, add.Product.Price)
	assert.Equal(t, 2, add.Quantity)
}

func TestDecode_SetErrorMessage(t *testing.T) {
	got, err := Decode([]byte(`{"type":"SET_ERROR","payload":"fallo"}`))
	require.NoError(t, err)

	se := got.(SetError)
	require.NotNil(t, se.Message)
	assert.Equal(t, "fallo", *se.Message)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{"type":`},
		{"not object", `["INCREMENT_COUNT"]`},
		{"type not string", `{"type":1}`},
		{"unknown type", `{"type":"EXPLODE"}`},
		{"increment string", `{"type":"INCREMENT_COUNT","payload":"1"}`},
		{"increment fraction", `{"type":"INCREMENT_COUNT","payload":1.5}`},
		{"save user null", `{"type":"SAVE_USER","payload":null}`},
		{"save user bad field", `{"type":"SAVE_USER","payload":{"name":3}}`},
		{"load object", `{"type":"LOAD_PRODUCTS","payload":{}}`},
		{"loading string", `{"type":"SET_LOADING","payload":"yes"}`},
		{"error number", `{"type":"SET_ERROR","payload":42}`},
		{"add missing product", `{"type":"ADD_TO_CART","payload":{"quantity":1}}`},
		{"add missing quantity", `{"type":"ADD_TO_CART","payload":{"product":{"id":1}}}`},
		{"remove object", `{"type":"REMOVE_FROM_CART","payload":{"id":1}}`},
		{"update missing id", `{"type":"UPDATE_QUANTITY","payload":{"quantity":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrMalformed)

			var me *MalformedError
			assert.ErrorAs(t, err, &me)
		})
	}
}

func TestEncode_DecodeRoundTrip(t *testing.T) {
	msg := "sin red"
	actions := []Action{
		IncrementCount{By: 3},
		SaveUser{User: model.User{Name: "Luis", Age: 40}},
		LoadProducts{Products: []model.Product{{ID: 1, Title: "A", Price: 9.99}}},
		SetError{Message: &msg},
		SetError{},
		AddToCart{Product: model.Product{ID: 5, Title: "B", Price: 1.5}, Quantity: 2},
		UpdateQuantity{ProductID: 5, Quantity: 4},
		ClearCart{},
	}

	for _, a := range actions {
		t.Run(string(a.Type()), func(t *testing.T) {
			raw, err := Encode(a)
			require.NoError(t, err)

			back, err := Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, a, back)
		})
	}
}

func TestEncode_WireShape(t *testing.T) {
	raw, err := Encode(UpdateQuantity{ProductID: 7, Quantity: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"UPDATE_QUANTITY","payload":{"productId":7,"quantity":2}}`, string(raw))

	raw, err = Encode(ClearCart{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"CLEAR_CART"}`, string(raw))
}

func TestIsCartAction(t *testing.T) {
	assert.True(t, IsCartAction(TypeAddToCart))
	assert.True(t, IsCartAction(TypeClearCart))
	assert.False(t, IsCartAction(TypeSetLoading))
	assert.False(t, IsCartAction(TypeIncrementCount))
}
