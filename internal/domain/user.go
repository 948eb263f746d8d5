package domain

import "time"

// User is a customer profile. UID is the identity provider's subject and is
// never generated locally.
type User struct {
	UID       string
	Phone     string
	Name      string
	CreatedAt time.Time
}

// Onboarded reports whether the user has completed name entry.
func (u *User) Onboarded() bool {
	return u.Name != ""
}
