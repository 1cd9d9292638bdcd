package domain

type WishlistEntry struct {
	Typename  string         `json:"__typename,omitempty"`
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Package   *TravelPackage `json:"packageId,omitempty"`
	CreatedAt string         `json:"createdAt,omitempty"`
}
