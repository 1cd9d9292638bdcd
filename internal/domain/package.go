package domain

type TravelPackage struct {
	Typename     string  `json:"__typename,omitempty"`
	ID           string  `json:"id"`
	Title        string  `json:"title,omitempty"`
	Description  string  `json:"description,omitempty"`
	Price        float64 `json:"price"`
	Duration     string  `json:"duration,omitempty"`
	Destination  string  `json:"destination,omitempty"`
	Category     string  `json:"category,omitempty"`
	Availability int     `json:"availability"`
	CreatedAt    string  `json:"createdAt,omitempty"`
	// ImageURL is filled locally from the image lookup, never by the backend.
	ImageURL string `json:"imageUrl,omitempty"`
}

// PackageInput is the argument set of addTravelPackage / editTravelPackage.
type PackageInput struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Duration     string  `json:"duration"`
	Destination  string  `json:"destination"`
	Category     string  `json:"category"`
	Availability int     `json:"availability"`
}
