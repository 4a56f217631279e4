// Package identity is the registered-user / contact-list / group
// persistence layer: one mutex-guarded store, defensive copies on
// read, persist-inside-the-lock on write.
package identity

import "time"

// User is a stored account.
type User struct {
	Username         string    `json:"username"` // lowercase, primary key
	Verifier         string    `json:"verifier"`  // opaque password hash
	DisplayName      string    `json:"displayName"`
	Email            string    `json:"email,omitempty"`
	AvatarToken      string    `json:"avatarToken,omitempty"`
	ProfilePictureID string    `json:"profilePictureId,omitempty"`
	Contacts         []string  `json:"contacts"`
	Groups           []string  `json:"groups"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Clone returns a defensive deep copy, for handing to callers that may mutate it.
func (u User) Clone() User {
	c := u
	c.Contacts = append([]string(nil), u.Contacts...)
	c.Groups = append([]string(nil), u.Groups...)
	return c
}

// Group is a persisted group chat.
type Group struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Owner       string   `json:"owner"`
	Members     []string `json:"members"`
}

// Clone returns a defensive deep copy.
func (g Group) Clone() Group {
	c := g
	c.Members = append([]string(nil), g.Members...)
	return c
}

// HasMember reports whether username is a member.
func (g Group) HasMember(username string) bool {
	for _, m := range g.Members {
		if m == username {
			return true
		}
	}
	return false
}
