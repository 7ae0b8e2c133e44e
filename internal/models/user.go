package models

// User is the booking owner resolved from the backend session token.
type User struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
}

// CanBook reports whether the identity fields required for a booking
// submission are present.
func (u User) CanBook() bool {
	return u.FullName != "" && u.Email != ""
}
