// Package presence computes each user's effective presence — their
// self-reported state overlaid with whether they are currently seated
// in a game — and fans out changes to every authenticated session.
package presence

import (
	"strings"
	"time"

	"github.com/vegamsg/vegaserver/internal/identity"
	"github.com/vegamsg/vegaserver/internal/protocol"
	"github.com/vegamsg/vegaserver/internal/session"
)

// Broadcaster fans out presence changes to the sessions held in the
// session.Registry it wraps.
type Broadcaster struct {
	registry *session.Registry
}

// NewBroadcaster wraps registry.
func NewBroadcaster(registry *session.Registry) *Broadcaster {
	return &Broadcaster{registry: registry}
}

// Effective computes the public presence view for user: appear-offline
// collapses to offline, and being seated in a lobby/arena overlays
// IsInGame/GameID regardless of self-reported presence.
func Effective(user identity.User, s *session.Session) protocol.UserPublic {
	pub := protocol.UserPublic{
		Username:         user.Username,
		DisplayName:      user.DisplayName,
		Email:            user.Email,
		AvatarToken:      user.AvatarToken,
		ProfilePictureID: user.ProfilePictureID,
		Presence:         protocol.PresenceOffline,
	}
	if s == nil {
		return pub
	}

	p := s.Presence()
	if p == protocol.PresenceAppearOffline {
		pub.Presence = protocol.PresenceOffline
	} else {
		pub.Presence = p
	}
	pub.PersonalMessage = s.PersonalMessage()

	if lobby := s.InGameLobby(); lobby != "" {
		pub.IsInGame = true
		pub.GameID = lobby
		if name, opponent := s.GameActivity(); name != "" {
			if opponent != "" {
				pub.PersonalMessage = "Playing " + name + " with " + opponent
			} else {
				pub.PersonalMessage = "Playing " + name
			}
		}
	}
	return pub
}

// Broadcast sends a PresenceBroadcast for user to every session except
// excludeUsername (typically the user's own, to avoid an echo).
func (b *Broadcaster) Broadcast(user identity.User, excludeUsername string) {
	sess, _ := b.registry.Get(user.Username)
	pub := Effective(user, sess)

	env, err := protocol.NewEnvelope(protocol.TypePresenceBroadcast, "", time.Now().UnixMilli(), protocol.PresenceBroadcast{User: pub})
	if err != nil {
		return
	}
	frame, err := protocol.EncodeEnvelope(env)
	if err != nil {
		return
	}

	exclude := strings.ToLower(excludeUsername)
	b.registry.ForEach(func(username string, target *session.Session) {
		if username == exclude {
			return
		}
		_ = target.Send(frame)
	})
}
