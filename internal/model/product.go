package model

// Product is a catalog entry as served by GET /products.
type Product struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
}

// CartItem is a product plus the quantity requested.
// The embedded Product is flattened on the wire, matching the persisted
// ecommerce_cart format.
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// User is the demo user profile saved through SAVE_USER.
type User struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}
