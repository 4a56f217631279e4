package identity_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vegamsg/vegaserver/internal/identity"
)

func TestRegisterUser_RejectsShortUsernameOrPassword(t *testing.T) {
	s, err := identity.New(nil)
	require.NoError(t, err)

	_, err = s.RegisterUser("ab", "longpass", "", "")
	require.Error(t, err)

	_, err = s.RegisterUser("alice", "abc", "", "")
	require.Error(t, err)
}

func TestRegisterUser_RejectsDuplicateCaseInsensitive(t *testing.T) {
	s, err := identity.New(nil)
	require.NoError(t, err)

	_, err = s.RegisterUser("Alice", "password", "", "")
	require.NoError(t, err)

	_, err = s.RegisterUser("alice", "password", "", "")
	require.Error(t, err)
}

func TestAuthenticate_SucceedsWithCorrectPassword(t *testing.T) {
	s, err := identity.New(nil)
	require.NoError(t, err)
	_, err = s.RegisterUser("alice", "password", "Alice", "")
	require.NoError(t, err)

	_, ok := s.Authenticate("alice", "password")
	require.True(t, ok)

	_, ok = s.Authenticate("alice", "wrong")
	require.False(t, ok)
}

func TestAddContact_IsIdempotent(t *testing.T) {
	s, err := identity.New(nil)
	require.NoError(t, err)
	_, err = s.RegisterUser("alice", "password", "", "")
	require.NoError(t, err)
	_, err = s.RegisterUser("bob", "password", "", "")
	require.NoError(t, err)

	require.NoError(t, s.AddContact("alice", "bob"))
	require.NoError(t, s.AddContact("alice", "bob"))

	require.Equal(t, []string{"bob"}, s.Contacts("alice"))
}

func TestRemoveMember_ReassignsOwnerThenDeletesWhenEmpty(t *testing.T) {
	s, err := identity.New(nil)
	require.NoError(t, err)
	_, err = s.RegisterUser("alice", "password", "", "")
	require.NoError(t, err)
	_, err = s.RegisterUser("bob", "password", "", "")
	require.NoError(t, err)

	g, err := s.CreateGroup("alice", "Friends", "")
	require.NoError(t, err)
	_, err = s.AddMember(g.ID, "bob")
	require.NoError(t, err)

	g2, deleted, err := s.RemoveMember(g.ID, "alice")
	require.NoError(t, err)
	require.False(t, deleted)
	require.Equal(t, "bob", g2.Owner)

	_, deleted, err = s.RemoveMember(g.ID, "bob")
	require.NoError(t, err)
	require.True(t, deleted)

	_, ok := s.GetGroup(g.ID)
	require.False(t, ok)
}
