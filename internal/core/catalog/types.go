package catalog

// CandidateProduct is one search result offered for selection. Candidates
// are ephemeral: they live only inside the current workflow step.
type CandidateProduct struct {
	ExternalID   string  `json:"external_id"`
	DisplayName  string  `json:"display_name"`
	Brand        string  `json:"brand,omitempty"`
	Price        float64 `json:"price,omitempty"`
	ImageURL     string  `json:"image_url,omitempty"`
	Availability string  `json:"availability,omitempty"`
	Aisle        string  `json:"aisle,omitempty"`
}

// Location is one store returned by a zipcode search.
type Location struct {
	LocationID string `json:"location_id"`
	Address    string `json:"address"`
	City       string `json:"city"`
}

// CartItem is one line of a cart submission.
type CartItem struct {
	UPC              string `json:"upc"`
	Quantity         int    `json:"quantity"`
	Modality         string `json:"modality"`
	AllowSubstitutes bool   `json:"allowSubstitutes"`
}
