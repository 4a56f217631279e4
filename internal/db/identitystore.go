package db

import (
	"context"
	"fmt"
	"time"

	"github.com/vegamsg/vegaserver/internal/identity"
)

// IdentityPersister implements identity.Persister against Postgres.
// Load/Save operate on the whole snapshot, matching the contract of
// identity/filestore, so identity.Store's in-memory maps stay the
// only place business rules run.
type IdentityPersister struct {
	db *DB
}

// NewIdentityPersister wraps db as an identity.Persister.
func NewIdentityPersister(d *DB) *IdentityPersister {
	return &IdentityPersister{db: d}
}

func (p *IdentityPersister) Load() (identity.Snapshot, error) {
	ctx := context.Background()
	snap := identity.Snapshot{
		Users:  make(map[string]identity.User),
		Groups: make(map[string]identity.Group),
	}

	rows, err := p.db.pool.Query(ctx, `SELECT username, verifier, display_name, email, avatar_token, profile_picture_id, created_at FROM users`)
	if err != nil {
		return snap, fmt.Errorf("querying users: %w", err)
	}
	for rows.Next() {
		var u identity.User
		var createdAt time.Time
		if err := rows.Scan(&u.Username, &u.Verifier, &u.DisplayName, &u.Email, &u.AvatarToken, &u.ProfilePictureID, &createdAt); err != nil {
			rows.Close()
			return snap, fmt.Errorf("scanning user row: %w", err)
		}
		u.CreatedAt = createdAt
		snap.Users[u.Username] = u
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("reading user rows: %w", err)
	}

	for username, u := range snap.Users {
		contacts, err := p.loadContacts(ctx, username)
		if err != nil {
			return snap, err
		}
		u.Contacts = contacts
		snap.Users[username] = u
	}

	groupRows, err := p.db.pool.Query(ctx, `SELECT id, name, description, owner FROM groups`)
	if err != nil {
		return snap, fmt.Errorf("querying groups: %w", err)
	}
	for groupRows.Next() {
		var g identity.Group
		if err := groupRows.Scan(&g.ID, &g.Name, &g.Description, &g.Owner); err != nil {
			groupRows.Close()
			return snap, fmt.Errorf("scanning group row: %w", err)
		}
		snap.Groups[g.ID] = g
	}
	groupRows.Close()
	if err := groupRows.Err(); err != nil {
		return snap, fmt.Errorf("reading group rows: %w", err)
	}

	for id, g := range snap.Groups {
		members, err := p.loadMembers(ctx, id)
		if err != nil {
			return snap, err
		}
		g.Members = members
		snap.Groups[id] = g
		for _, m := range members {
			if u, ok := snap.Users[m]; ok {
				u.Groups = append(u.Groups, id)
				snap.Users[m] = u
			}
		}
	}

	return snap, nil
}

func (p *IdentityPersister) loadContacts(ctx context.Context, username string) ([]string, error) {
	rows, err := p.db.pool.Query(ctx, `SELECT contact FROM contacts WHERE username = $1`, username)
	if err != nil {
		return nil, fmt.Errorf("querying contacts for %q: %w", username, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning contact row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *IdentityPersister) loadMembers(ctx context.Context, groupID string) ([]string, error) {
	rows, err := p.db.pool.Query(ctx, `SELECT username FROM group_members WHERE group_id = $1`, groupID)
	if err != nil {
		return nil, fmt.Errorf("querying members of %q: %w", groupID, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Save overwrites the entire identity state in one transaction. This
// is a blunt full-rewrite strategy, acceptable because writes are
// already serialized by identity.Store's mutex before Save is called.
func (p *IdentityPersister) Save(snap identity.Snapshot) error {
	ctx := context.Background()
	tx, err := p.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range []string{
		`DELETE FROM group_members`,
		`DELETE FROM groups`,
		`DELETE FROM contacts`,
		`DELETE FROM users`,
	} {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("clearing tables: %w", err)
		}
	}

	for _, u := range snap.Users {
		_, err := tx.Exec(ctx,
			`INSERT INTO users (username, verifier, display_name, email, avatar_token, profile_picture_id, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			u.Username, u.Verifier, u.DisplayName, u.Email, u.AvatarToken, u.ProfilePictureID, u.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting user %q: %w", u.Username, err)
		}
	}
	for _, u := range snap.Users {
		for _, c := range u.Contacts {
			if _, err := tx.Exec(ctx, `INSERT INTO contacts (username, contact) VALUES ($1, $2)`, u.Username, c); err != nil {
				return fmt.Errorf("inserting contact %q->%q: %w", u.Username, c, err)
			}
		}
	}
	for _, g := range snap.Groups {
		if _, err := tx.Exec(ctx, `INSERT INTO groups (id, name, description, owner) VALUES ($1, $2, $3, $4)`,
			g.ID, g.Name, g.Description, g.Owner); err != nil {
			return fmt.Errorf("inserting group %q: %w", g.ID, err)
		}
		for _, m := range g.Members {
			if _, err := tx.Exec(ctx, `INSERT INTO group_members (group_id, username) VALUES ($1, $2)`, g.ID, m); err != nil {
				return fmt.Errorf("inserting member %q of %q: %w", m, g.ID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
