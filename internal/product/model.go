package product

import "time"

type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	Images       []string  `json:"images"`
	Category     string    `json:"category"`
	CountInStock int       `json:"countInStock"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Input is the admin payload for create and update.
type Input struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Price        float64  `json:"price"`
	Images       []string `json:"images"`
	Category     string   `json:"category"`
	CountInStock int      `json:"countInStock"`
}

type ListOptions struct {
	Category string
	Search   string
}
