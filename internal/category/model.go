package category

// Category is a distinct product category with the number of products
// filed under it.
type Category struct {
	Name         string `json:"name"`
	ProductCount int    `json:"productCount"`
}
