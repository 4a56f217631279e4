package server

import (
	"github.com/vegamsg/vegaserver/internal/identity"
	"github.com/vegamsg/vegaserver/internal/protocol"
)

func (s *Server) handleChatMessage(cc *connCtx, env protocol.Envelope) {
	var req protocol.ChatMessage
	if err := env.Decode(&req); err != nil {
		return
	}
	req.From = cc.sess.Username()

	if _, ok := s.identity.GetUser(req.To); !ok {
		s.sendError(cc.sess, protocol.ErrUserNotFound, "unknown user "+req.To)
		return
	}
	if !s.sendTo(req.To, protocol.TypeChatMessage, req) {
		s.sendError(cc.sess, protocol.ErrUserOffline, req.To+" is offline")
		return
	}
	s.sendEnvelope(cc.sess, protocol.TypeChatMessageDelivered, protocol.ChatMessageDelivered{OriginalID: env.ID})
}

func (s *Server) handleChatTyping(cc *connCtx, env protocol.Envelope) {
	var req protocol.ChatTyping
	if err := env.Decode(&req); err != nil {
		return
	}
	req.From = cc.sess.Username()
	s.sendTo(req.To, protocol.TypeChatTyping, req)
}

func (s *Server) handleNudge(cc *connCtx, env protocol.Envelope) {
	var req protocol.Nudge
	if err := env.Decode(&req); err != nil {
		return
	}
	req.From = cc.sess.Username()
	s.sendTo(req.To, protocol.TypeNudge, req)
}

func (s *Server) handleStickerSend(cc *connCtx, env protocol.Envelope) {
	var req protocol.StickerSend
	if err := env.Decode(&req); err != nil {
		return
	}
	req.From = cc.sess.Username()
	if req.IsGroup {
		group, ok := s.identity.GetGroup(req.To)
		if !ok {
			return
		}
		for _, member := range group.Members {
			if member == req.From {
				continue
			}
			s.sendTo(member, protocol.TypeStickerSend, req)
		}
		return
	}
	s.sendTo(req.To, protocol.TypeStickerSend, req)
}

func (s *Server) handleCreateGroup(cc *connCtx, env protocol.Envelope) {
	var req protocol.CreateGroup
	if err := env.Decode(&req); err != nil {
		return
	}
	username := cc.sess.Username()
	group, err := s.identity.CreateGroup(username, req.Name, req.Description)
	if err != nil {
		s.sendEnvelope(cc.sess, protocol.TypeCreateGroupAck, protocol.CreateGroupAck{Success: false, Message: err.Error()})
		return
	}
	gp := groupPublic(group)
	s.sendEnvelope(cc.sess, protocol.TypeCreateGroupAck, protocol.CreateGroupAck{Success: true, Group: &gp})
}

func (s *Server) handleInviteToGroup(cc *connCtx, env protocol.Envelope) {
	var req protocol.InviteToGroup
	if err := env.Decode(&req); err != nil {
		return
	}
	group, ok := s.identity.GetGroup(req.GroupID)
	if !ok || !group.HasMember(cc.sess.Username()) {
		return
	}
	s.sendTo(req.Username, protocol.TypeGroupInviteReceived, protocol.GroupInviteReceived{
		GroupID:   group.ID,
		GroupName: group.Name,
		Inviter:   cc.sess.Username(),
	})
}

func (s *Server) handleJoinGroup(cc *connCtx, env protocol.Envelope) {
	var req protocol.JoinGroup
	if err := env.Decode(&req); err != nil {
		return
	}
	username := cc.sess.Username()
	group, err := s.identity.AddMember(req.GroupID, username)
	if err != nil {
		return
	}
	s.broadcastGroupMemberUpdate(group, "joined", username)
}

func (s *Server) handleLeaveGroup(cc *connCtx, env protocol.Envelope) {
	var req protocol.LeaveGroup
	if err := env.Decode(&req); err != nil {
		return
	}
	username := cc.sess.Username()
	group, deleted, err := s.identity.RemoveMember(req.GroupID, username)
	if err != nil || deleted {
		return
	}
	s.broadcastGroupMemberUpdate(group, "left", username)
}

func (s *Server) handleGroupMessage(cc *connCtx, env protocol.Envelope) {
	var req protocol.GroupMessage
	if err := env.Decode(&req); err != nil {
		return
	}
	req.From = cc.sess.Username()
	group, ok := s.identity.GetGroup(req.GroupID)
	if !ok || !group.HasMember(req.From) {
		return
	}
	for _, member := range group.Members {
		if member == req.From {
			continue
		}
		s.sendTo(member, protocol.TypeGroupMessage, req)
	}
}

func (s *Server) handleAddContact(cc *connCtx, env protocol.Envelope) {
	var req protocol.AddContact
	if err := env.Decode(&req); err != nil {
		return
	}
	username := cc.sess.Username()
	if _, ok := s.identity.GetUser(req.Username); !ok {
		s.sendError(cc.sess, protocol.ErrUserNotFound, "unknown user "+req.Username)
		return
	}
	if err := s.identity.AddContact(username, req.Username); err != nil {
		return
	}
	s.sendTo(req.Username, protocol.TypeContactRequest, protocol.ContactRequest{From: username})
}

func (s *Server) handleRemoveContact(cc *connCtx, env protocol.Envelope) {
	var req protocol.RemoveContact
	if err := env.Decode(&req); err != nil {
		return
	}
	_ = s.identity.RemoveContact(cc.sess.Username(), req.Username)
}

func (s *Server) broadcastGroupMemberUpdate(group identity.Group, action, subject string) {
	update := protocol.GroupMemberUpdate{
		GroupID: group.ID,
		Members: group.Members,
		Owner:   group.Owner,
		Action:  action,
		Subject: subject,
	}
	for _, member := range group.Members {
		s.sendTo(member, protocol.TypeGroupMemberUpdate, update)
	}
}

func groupPublic(g identity.Group) protocol.GroupPublic {
	return protocol.GroupPublic{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Owner:       g.Owner,
		Members:     g.Members,
	}
}
