package models

// Desk is a bookable workplace positioned on the floor plan.
// Bookings holds the active query window fetched from the backend; the
// backend remains the authoritative owner of booking records.
type Desk struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Type        string    `json:"type,omitempty"`
	Description string    `json:"description,omitempty"`
	Features    []string  `json:"features"`
	Capacity    int       `json:"capacity,omitempty"`
	RoomID      string    `json:"room_id,omitempty"`
	Bookings    []Booking `json:"bookings,omitempty"`
}

// DeskInput carries the fields an administrator supplies when placing or
// editing a desk on the map.
type DeskInput struct {
	Name        string   `json:"name"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	RoomID      string   `json:"room_id"`
	Features    []string `json:"features,omitempty"`
}
