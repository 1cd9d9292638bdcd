package domain

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking mirrors the backend Booking type. The package reference is carried
// under "packageId" the way the backend schema names it.
type Booking struct {
	Typename  string         `json:"__typename,omitempty"`
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Username  string         `json:"username,omitempty"`
	Package   *TravelPackage `json:"packageId,omitempty"`
	Date      string         `json:"date"`
	Status    BookingStatus  `json:"status"`
	CreatedAt string         `json:"createdAt,omitempty"`
}

// BookingEvent is the payload of the bookingCreated / bookingCancelled
// subscriptions. Unlike Booking it references the package by id only.
type BookingEvent struct {
	Type      string        `json:"type"`
	ID        string        `json:"id"`
	PackageID string        `json:"packageId"`
	UserID    string        `json:"userId"`
	Date      string        `json:"date"`
	Status    BookingStatus `json:"status"`
	CreatedAt string        `json:"createdAt"`
}

const (
	BookingEventCreated   = "booking_created"
	BookingEventCancelled = "booking_cancelled"
)
