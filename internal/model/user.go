// Package model defines the data structures shared by the store, the services
// and the HTTP layer.
package model

// User is a registered account. Username is the primary key and never changes
// after registration.
//
// PasswordHash holds the output of the configured hasher, never the plaintext.
// It is excluded from JSON so a User can never leak it through a response.
type User struct {
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-"        db:"password_hash"`
	Email        string `json:"email"    db:"email"`
}

// AuthToken ties an opaque bearer token to the user it was issued for.
// A user may hold any number of live tokens at once.
type AuthToken struct {
	Token    string `json:"authToken" db:"token"`
	Username string `json:"username"  db:"username"`
}
