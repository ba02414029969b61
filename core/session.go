package core

// User is the profile persisted alongside the session token.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Session pairs a bearer token with the profile of the user it was issued to.
// The token is opaque to the client; a session with an empty token is treated
// as absent everywhere.
type Session struct {
	Token string
	User  *User
}

// Authenticated reports whether the session carries a usable token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}
