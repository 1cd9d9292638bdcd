package domain

type AdminAnalytics struct {
	Typename               string          `json:"__typename,omitempty"`
	TotalRevenue           float64         `json:"totalRevenue"`
	TotalBookings          int             `json:"totalBookings"`
	ConfirmedBookingsCount int             `json:"confirmedBookingsCount"`
	CancelledBookingsCount int             `json:"cancelledBookingsCount"`
	MostPopularPackages    []TravelPackage `json:"mostPopularPackages"`
}
