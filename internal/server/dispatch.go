package server

import (
	"github.com/vegamsg/vegaserver/internal/identity"
	"github.com/vegamsg/vegaserver/internal/presence"
	"github.com/vegamsg/vegaserver/internal/protocol"
	"github.com/vegamsg/vegaserver/internal/session"
)

// dispatch routes one decoded envelope to its handler, gating
// authenticated-only packet types until Login succeeds.
func (s *Server) dispatch(cc *connCtx, env protocol.Envelope) {
	if cc.sess == nil && !preAuthAllowed(env.T) {
		writeDirect(cc.conn, protocol.TypeError, protocol.Error{
			Code:    protocol.ErrAuthRequired,
			Message: "login required",
		})
		return
	}

	switch env.T {
	case protocol.TypePing:
		s.handlePing(cc, env)
	case protocol.TypeRegister:
		s.handleRegister(cc, env)
	case protocol.TypeLogin:
		s.handleLogin(cc, env)
	case protocol.TypeLogout:
		s.handleLogout(cc)
	case protocol.TypePresenceUpdate:
		s.handlePresenceUpdate(cc, env)
	case protocol.TypeChatMessage:
		s.handleChatMessage(cc, env)
	case protocol.TypeChatTyping:
		s.handleChatTyping(cc, env)
	case protocol.TypeNudge:
		s.handleNudge(cc, env)
	case protocol.TypeStickerSend:
		s.handleStickerSend(cc, env)
	case protocol.TypeCreateGroup:
		s.handleCreateGroup(cc, env)
	case protocol.TypeInviteToGroup:
		s.handleInviteToGroup(cc, env)
	case protocol.TypeJoinGroup:
		s.handleJoinGroup(cc, env)
	case protocol.TypeLeaveGroup:
		s.handleLeaveGroup(cc, env)
	case protocol.TypeGroupMessage:
		s.handleGroupMessage(cc, env)
	case protocol.TypeAddContact:
		s.handleAddContact(cc, env)
	case protocol.TypeRemoveContact:
		s.handleRemoveContact(cc, env)
	case protocol.TypeFileSend:
		s.handleFileSend(cc, env)
	case protocol.TypeFileRequest:
		s.handleFileRequest(cc, env)
	case protocol.TypeProfilePictureUpdate:
		s.handleProfilePictureUpdate(cc, env)
	case protocol.TypeRequestProfilePic:
		s.handleRequestProfilePic(cc, env)
	case protocol.TypeGame:
		s.handleGamePacket(cc, env)
	default:
		s.log.Debug("unhandled packet type", "type", env.T.String())
	}
}

func (s *Server) handlePing(cc *connCtx, env protocol.Envelope) {
	if cc.sess == nil {
		writeDirect(cc.conn, protocol.TypePong, protocol.Pong{})
		return
	}
	s.sendEnvelope(cc.sess, protocol.TypePong, protocol.Pong{})
}

func (s *Server) handleRegister(cc *connCtx, env protocol.Envelope) {
	var req protocol.Register
	if err := env.Decode(&req); err != nil {
		return
	}
	_, err := s.identity.RegisterUser(req.Username, req.Password, req.DisplayName, req.Email)
	if err != nil {
		writeDirect(cc.conn, protocol.TypeRegisterAck, protocol.RegisterAck{Success: false, Message: err.Error()})
		return
	}
	writeDirect(cc.conn, protocol.TypeRegisterAck, protocol.RegisterAck{Success: true})
}

func (s *Server) handleLogin(cc *connCtx, env protocol.Envelope) {
	var req protocol.Login
	if err := env.Decode(&req); err != nil {
		return
	}
	user, ok := s.identity.Authenticate(req.Username, req.Password)
	if !ok {
		writeDirect(cc.conn, protocol.TypeLoginAck, protocol.LoginAck{Success: false, Message: "invalid username or password"})
		return
	}

	sess := session.New(cc.conn, user.Username, s.writePool, s.cfg.SendQueueSize, s.cfg.WriteTimeout.D())
	if displaced := s.sessions.Register(user.Username, sess); displaced != nil {
		session.Displace(displaced)
	}
	sess.Run()
	cc.sess = sess

	pub := presence.Effective(user, sess)
	s.sendEnvelope(sess, protocol.TypeLoginAck, protocol.LoginAck{Success: true, User: &pub})
	s.sendEnvelope(sess, protocol.TypeUserList, s.buildUserList(user))
	s.presence.Broadcast(user, user.Username)
}

func (s *Server) handleLogout(cc *connCtx) {
	if cc.sess == nil {
		return
	}
	cc.sess.Close()
}

func (s *Server) handlePresenceUpdate(cc *connCtx, env protocol.Envelope) {
	var req protocol.PresenceUpdate
	if err := env.Decode(&req); err != nil {
		return
	}
	username := cc.sess.Username()
	cc.sess.SetPresence(req.Presence)
	cc.sess.SetPersonalMessage(req.PersonalMessage)
	if req.AvatarToken != "" {
		_ = s.identity.SetAvatarToken(username, req.AvatarToken)
	}
	if u, ok := s.identity.GetUser(username); ok {
		s.presence.Broadcast(u, "")
	}
}

// buildUserList assembles caller's post-login snapshot: every
// currently online user, plus caller's offline contacts.
func (s *Server) buildUserList(caller identity.User) protocol.UserList {
	var list protocol.UserList
	s.sessions.ForEach(func(username string, sess *session.Session) {
		u, ok := s.identity.GetUser(username)
		if !ok {
			return
		}
		list.Online = append(list.Online, presence.Effective(u, sess))
	})
	for _, contact := range caller.Contacts {
		if _, online := s.sessions.Get(contact); online {
			continue
		}
		u, ok := s.identity.GetUser(contact)
		if !ok {
			continue
		}
		list.OfflineContacts = append(list.OfflineContacts, presence.Effective(u, nil))
	}
	return list
}
