package identity

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vegamsg/vegaserver/internal/idgen"
)

// Persister durably saves and loads the full identity snapshot. The
// default implementation is identity/filestore, a JSON data-directory
// file; internal/db provides an optional Postgres-backed implementation
// of the same interface.
type Persister interface {
	Load() (Snapshot, error)
	Save(Snapshot) error
}

// Snapshot is the full persisted state.
type Snapshot struct {
	Users  map[string]User  `json:"users"`
	Groups map[string]Group `json:"groups"`
}

// Store is the mutex-guarded identity registry: a single mutex guards
// the in-memory maps, and every write persists before releasing it.
type Store struct {
	mu        sync.Mutex
	users     map[string]User
	groups    map[string]Group
	persister Persister
}

// New loads the snapshot from persister and returns any error Load
// reports. Starting empty on a missing or unreadable file is left to
// the persister; filestore's Load does so.
func New(persister Persister) (*Store, error) {
	s := &Store{
		users:     make(map[string]User),
		groups:    make(map[string]Group),
		persister: persister,
	}
	if persister != nil {
		snap, err := persister.Load()
		if err != nil {
			return nil, fmt.Errorf("loading identity snapshot: %w", err)
		}
		if snap.Users != nil {
			s.users = snap.Users
		}
		if snap.Groups != nil {
			s.groups = snap.Groups
		}
	}
	return s, nil
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// snapshotLocked returns the current state; caller must hold s.mu.
func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Users: s.users, Groups: s.groups}
}

// RegisterUser validates and creates a new account, returning the
// created User (with verifier populated) on success.
func (s *Store) RegisterUser(username, password, displayName, email string) (User, error) {
	username = normalize(username)
	if len(username) < 3 {
		return User{}, fmt.Errorf("username must be at least 3 characters")
	}
	if len(password) < 4 {
		return User{}, fmt.Errorf("password must be at least 4 characters")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return User{}, fmt.Errorf("username %q already registered", username)
	}

	verifier, err := HashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}
	if displayName == "" {
		displayName = username
	}

	u := User{
		Username:    username,
		Verifier:    verifier,
		DisplayName: displayName,
		Email:       email,
		CreatedAt:   time.Now(),
	}
	s.users[username] = u

	return u.Clone(), s.persistLocked()
}

// persistLocked saves under the lock and returns a persistence error,
// if any — callers decide whether to surface it or merely log it.
func (s *Store) persistLocked() error {
	if s.persister == nil {
		return nil
	}
	return s.persister.Save(s.snapshotLocked())
}

// GetUser returns a defensive copy of the stored user, if any.
func (s *Store) GetUser(username string) (User, bool) {
	username = normalize(username)
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return User{}, false
	}
	return u.Clone(), true
}

// Authenticate verifies a login attempt.
func (s *Store) Authenticate(username, password string) (User, bool) {
	u, ok := s.GetUser(username)
	if !ok {
		return User{}, false
	}
	if !VerifyPassword(u.Verifier, password) {
		return User{}, false
	}
	return u, true
}

// AddContact is idempotent.
func (s *Store) AddContact(username, contact string) error {
	username, contact = normalize(username), normalize(contact)

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return fmt.Errorf("user %q not found", username)
	}
	if _, ok := s.users[contact]; !ok {
		return fmt.Errorf("user %q not found", contact)
	}
	for _, c := range u.Contacts {
		if c == contact {
			return nil // idempotent
		}
	}
	u.Contacts = append(u.Contacts, contact)
	s.users[username] = u
	return s.persistLocked()
}

// RemoveContact removes contact from username's list, if present.
func (s *Store) RemoveContact(username, contact string) error {
	username, contact = normalize(username), normalize(contact)

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return fmt.Errorf("user %q not found", username)
	}
	out := u.Contacts[:0:0]
	for _, c := range u.Contacts {
		if c != contact {
			out = append(out, c)
		}
	}
	u.Contacts = out
	s.users[username] = u
	return s.persistLocked()
}

// CreateGroup creates a new group owned by owner, who is its first member.
func (s *Store) CreateGroup(owner, name, description string) (Group, error) {
	owner = normalize(owner)

	s.mu.Lock()
	defer s.mu.Unlock()

	ownerUser, ok := s.users[owner]
	if !ok {
		return Group{}, fmt.Errorf("user %q not found", owner)
	}

	id, err := idgen.Group()
	if err != nil {
		return Group{}, fmt.Errorf("generating group id: %w", err)
	}

	g := Group{ID: id, Name: name, Description: description, Owner: owner, Members: []string{owner}}
	s.groups[id] = g

	ownerUser.Groups = append(ownerUser.Groups, id)
	s.users[owner] = ownerUser

	return g.Clone(), s.persistLocked()
}

// GetGroup returns a defensive copy of the group, if any.
func (s *Store) GetGroup(id string) (Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return Group{}, false
	}
	return g.Clone(), true
}

// AddMember adds username to group id. Idempotent.
func (s *Store) AddMember(id, username string) (Group, error) {
	username = normalize(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok {
		return Group{}, fmt.Errorf("group %q not found", id)
	}
	u, ok := s.users[username]
	if !ok {
		return Group{}, fmt.Errorf("user %q not found", username)
	}

	if !g.HasMember(username) {
		g.Members = append(g.Members, username)
		s.groups[id] = g
		u.Groups = append(u.Groups, id)
		s.users[username] = u
		if err := s.persistLocked(); err != nil {
			return Group{}, err
		}
	}
	return g.Clone(), nil
}

// RemoveMember removes username from group id. If the departing member
// is the owner, ownership reassigns to the first remaining member, so
// a group always has a member that owns it. If the group becomes
// empty, it is deleted.
func (s *Store) RemoveMember(id, username string) (group Group, deleted bool, err error) {
	username = normalize(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok {
		return Group{}, false, fmt.Errorf("group %q not found", id)
	}

	members := g.Members[:0:0]
	for _, m := range g.Members {
		if m != username {
			members = append(members, m)
		}
	}
	g.Members = members

	if u, ok := s.users[username]; ok {
		gs := u.Groups[:0:0]
		for _, gid := range u.Groups {
			if gid != id {
				gs = append(gs, gid)
			}
		}
		u.Groups = gs
		s.users[username] = u
	}

	if len(g.Members) == 0 {
		delete(s.groups, id)
		if err := s.persistLocked(); err != nil {
			return Group{}, true, err
		}
		return Group{}, true, nil
	}

	if g.Owner == username {
		g.Owner = g.Members[0]
	}
	s.groups[id] = g

	return g.Clone(), false, s.persistLocked()
}

// SetProfilePicture updates the stored user's picture-id field and
// returns the previous id (so the caller can delete the old blob).
func (s *Store) SetProfilePicture(username, blobID string) (previous string, err error) {
	username = normalize(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return "", fmt.Errorf("user %q not found", username)
	}
	previous = u.ProfilePictureID
	u.ProfilePictureID = blobID
	s.users[username] = u
	return previous, s.persistLocked()
}

// SetAvatarToken updates the stored user's avatar token.
func (s *Store) SetAvatarToken(username, token string) error {
	username = normalize(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return fmt.Errorf("user %q not found", username)
	}
	u.AvatarToken = token
	s.users[username] = u
	return s.persistLocked()
}

// Contacts returns the caller's contact usernames (defensive copy).
func (s *Store) Contacts(username string) []string {
	username = normalize(username)
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil
	}
	return append([]string(nil), u.Contacts...)
}
