package server

import (
	"bytes"
	"encoding/base64"
	"io"
	"strings"

	"github.com/vegamsg/vegaserver/internal/idgen"
	"github.com/vegamsg/vegaserver/internal/protocol"
)

func (s *Server) handleFileSend(cc *connCtx, env protocol.Envelope) {
	var req protocol.FileSend
	if err := env.Decode(&req); err != nil {
		return
	}
	from := cc.sess.Username()

	raw, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		s.sendEnvelope(cc.sess, protocol.TypeFileSendAck, protocol.FileSendAck{Success: false, Message: "invalid file data"})
		return
	}

	meta, err := s.blobs.Put(bytes.NewReader(raw), req.FileName, req.MimeType)
	if err != nil {
		s.sendEnvelope(cc.sess, protocol.TypeFileSendAck, protocol.FileSendAck{Success: false, Message: err.Error()})
		return
	}
	s.sendEnvelope(cc.sess, protocol.TypeFileSendAck, protocol.FileSendAck{Success: true, FileID: meta.ID})

	deliver := func(to string) {
		payload := protocol.FileReceive{
			From:     from,
			FileID:   meta.ID,
			FileName: meta.Filename,
			MimeType: meta.ContentType,
			Size:     meta.Size,
		}
		if strings.HasPrefix(meta.ContentType, "image/") && meta.Size <= s.cfg.InlineThreshold {
			payload.Data = req.Data
		}
		s.sendTo(to, protocol.TypeFileReceive, payload)
	}

	if req.IsGroup {
		group, ok := s.identity.GetGroup(req.To)
		if !ok {
			return
		}
		for _, member := range group.Members {
			if member == from {
				continue
			}
			deliver(member)
		}
		return
	}
	deliver(req.To)
}

func (s *Server) handleFileRequest(cc *connCtx, env protocol.Envelope) {
	var req protocol.FileRequest
	if err := env.Decode(&req); err != nil {
		return
	}
	rc, err := s.blobs.Open(req.FileID)
	if err != nil {
		s.sendEnvelope(cc.sess, protocol.TypeFileData, protocol.FileData{FileID: req.FileID, Found: false})
		return
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		s.sendEnvelope(cc.sess, protocol.TypeFileData, protocol.FileData{FileID: req.FileID, Found: false})
		return
	}
	s.sendEnvelope(cc.sess, protocol.TypeFileData, protocol.FileData{
		FileID: req.FileID,
		Found:  true,
		Data:   base64.StdEncoding.EncodeToString(data),
	})
}

func (s *Server) handleProfilePictureUpdate(cc *connCtx, env protocol.Envelope) {
	var req protocol.ProfilePictureUpdate
	if err := env.Decode(&req); err != nil {
		return
	}
	username := cc.sess.Username()

	raw, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		s.sendEnvelope(cc.sess, protocol.TypeProfilePictureAck, protocol.ProfilePictureAck{Success: false, Message: "invalid image data"})
		return
	}

	meta, err := s.blobs.Put(bytes.NewReader(raw), idgen.MustNew(8), req.MimeType)
	if err != nil {
		s.sendEnvelope(cc.sess, protocol.TypeProfilePictureAck, protocol.ProfilePictureAck{Success: false, Message: err.Error()})
		return
	}

	previous, err := s.identity.SetProfilePicture(username, meta.ID)
	if err != nil {
		s.sendEnvelope(cc.sess, protocol.TypeProfilePictureAck, protocol.ProfilePictureAck{Success: false, Message: err.Error()})
		return
	}
	if previous != "" && previous != meta.ID {
		_ = s.blobs.Delete(previous)
	}

	s.sendEnvelope(cc.sess, protocol.TypeProfilePictureAck, protocol.ProfilePictureAck{Success: true, BlobID: meta.ID})
	if u, ok := s.identity.GetUser(username); ok {
		s.presence.Broadcast(u, "")
	}
}

func (s *Server) handleRequestProfilePic(cc *connCtx, env protocol.Envelope) {
	var req protocol.RequestProfilePic
	if err := env.Decode(&req); err != nil {
		return
	}
	u, ok := s.identity.GetUser(req.Username)
	if !ok || u.ProfilePictureID == "" {
		s.sendEnvelope(cc.sess, protocol.TypeProfilePicData, protocol.ProfilePicData{Username: req.Username, Found: false})
		return
	}

	rc, err := s.blobs.Open(u.ProfilePictureID)
	if err != nil {
		s.sendEnvelope(cc.sess, protocol.TypeProfilePicData, protocol.ProfilePicData{Username: req.Username, Found: false})
		return
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		s.sendEnvelope(cc.sess, protocol.TypeProfilePicData, protocol.ProfilePicData{Username: req.Username, Found: false})
		return
	}
	s.sendEnvelope(cc.sess, protocol.TypeProfilePicData, protocol.ProfilePicData{
		Username: req.Username,
		BlobID:   u.ProfilePictureID,
		Found:    true,
		Data:     base64.StdEncoding.EncodeToString(data),
	})
}
