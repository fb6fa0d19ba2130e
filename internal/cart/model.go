package cart

// Item is one line of the cart. The JSON shape is the persisted slot format.
type Item struct {
	ProductID string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
	Quantity  int     `json:"quantity"`
}

// Key identifies a line: no two items in a cart share one.
type Key struct {
	ProductID string
	Size      string
	Color     string
}

func (i Item) Key() Key {
	return Key{ProductID: i.ProductID, Size: i.Size, Color: i.Color}
}

func (i Item) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

type Action string

const (
	ActionAdded   Action = "added"
	ActionUpdated Action = "updated"
)

// Outcome is the user-visible result of Add.
type Outcome struct {
	Action  Action
	Message string
}
