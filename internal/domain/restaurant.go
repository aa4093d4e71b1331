package domain

import "time"

type Restaurant struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	City         string   `json:"city"`
	Cuisine      []string `json:"cuisine"`
	PriceLevel   int      `json:"price_level"`
	Rating       float64  `json:"rating"`
	Description  string   `json:"description,omitempty"`
	Address      string   `json:"address,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Website      string   `json:"website,omitempty"`
	OpeningHours string   `json:"opening_hours,omitempty"`

	Images []RestaurantImage `json:"images,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RestaurantImage struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	BlobKey      string    `json:"blob_key"`
	BlobURL      string    `json:"blob_url"`
	AltText      string    `json:"alt_text,omitempty"`
	DisplayOrder int       `json:"display_order"`
	IsPrimary    bool      `json:"is_primary"`
	FileSize     int64     `json:"file_size,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RestaurantFilter narrows a restaurant listing. Zero values mean "no filter".
type RestaurantFilter struct {
	City        string
	Cuisine     []string
	PriceLevels []int
}

type RestaurantReq struct {
	Name         string   `json:"name"`
	City         string   `json:"city"`
	Cuisine      []string `json:"cuisine"`
	PriceLevel   int      `json:"price_level"`
	Rating       float64  `json:"rating"`
	Description  string   `json:"description"`
	Address      string   `json:"address"`
	Phone        string   `json:"phone"`
	Website      string   `json:"website"`
	OpeningHours string   `json:"opening_hours"`
}

func (r *RestaurantReq) Validate() error {
	switch {
	case r.Name == "":
		return &ValidationError{Field: "name", Reason: "required"}
	case r.City == "":
		return &ValidationError{Field: "city", Reason: "required"}
	}
	return nil
}
