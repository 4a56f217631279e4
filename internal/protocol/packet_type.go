// Package protocol implements the wire codec: newline-delimited JSON
// envelopes, the packet-type catalog, and the per-connection frame
// reader/writer.
package protocol

// PacketType tags the payload carried by an Envelope. Values are fixed
// once assigned; never renumber a shipped type.
type PacketType int

const (
	TypePing PacketType = iota + 1
	TypePong
	TypeRegister
	TypeRegisterAck
	TypeLogin
	TypeLoginAck
	TypeLogout
	TypeError
	TypeUserList
	TypePresenceUpdate
	TypePresenceBroadcast
	TypeChatMessage
	TypeChatMessageDelivered
	TypeChatTyping
	TypeNudge
	TypeCreateGroup
	TypeCreateGroupAck
	TypeInviteToGroup
	TypeGroupInviteReceived
	TypeJoinGroup
	TypeLeaveGroup
	TypeGroupMemberUpdate
	TypeGroupMessage
	TypeAddContact
	TypeContactRequest
	TypeRemoveContact
	TypeFileSend
	TypeFileSendAck
	TypeFileReceive
	TypeFileRequest
	TypeFileData
	TypeProfilePictureUpdate
	TypeProfilePictureAck
	TypeRequestProfilePic
	TypeProfilePicData
	TypeStickerSend
	TypeGame
)

// String renders the type name for logging.
func (t PacketType) String() string {
	if s, ok := packetTypeNames[t]; ok {
		return s
	}
	return "Unknown"
}

var packetTypeNames = map[PacketType]string{
	TypePing:                 "Ping",
	TypePong:                 "Pong",
	TypeRegister:             "Register",
	TypeRegisterAck:          "RegisterAck",
	TypeLogin:                "Login",
	TypeLoginAck:             "LoginAck",
	TypeLogout:               "Logout",
	TypeError:                "Error",
	TypeUserList:             "UserList",
	TypePresenceUpdate:       "PresenceUpdate",
	TypePresenceBroadcast:    "PresenceBroadcast",
	TypeChatMessage:          "ChatMessage",
	TypeChatMessageDelivered: "ChatMessageDelivered",
	TypeChatTyping:           "ChatTyping",
	TypeNudge:                "Nudge",
	TypeCreateGroup:          "CreateGroup",
	TypeCreateGroupAck:       "CreateGroupAck",
	TypeInviteToGroup:        "InviteToGroup",
	TypeGroupInviteReceived:  "GroupInviteReceived",
	TypeJoinGroup:            "JoinGroup",
	TypeLeaveGroup:           "LeaveGroup",
	TypeGroupMemberUpdate:    "GroupMemberUpdate",
	TypeGroupMessage:         "GroupMessage",
	TypeAddContact:           "AddContact",
	TypeContactRequest:       "ContactRequest",
	TypeRemoveContact:        "RemoveContact",
	TypeFileSend:             "FileSend",
	TypeFileSendAck:          "FileSendAck",
	TypeFileReceive:          "FileReceive",
	TypeFileRequest:          "FileRequest",
	TypeFileData:             "FileData",
	TypeProfilePictureUpdate: "ProfilePictureUpdate",
	TypeProfilePictureAck:    "ProfilePictureAck",
	TypeRequestProfilePic:    "RequestProfilePic",
	TypeProfilePicData:       "ProfilePicData",
	TypeStickerSend:          "StickerSend",
	TypeGame:                 "Game",
}

// ErrorCode enumerates the wire-level error taxonomy.
type ErrorCode string

const (
	ErrAuthRequired ErrorCode = "AUTH_REQUIRED"
	ErrKicked       ErrorCode = "KICKED"
	ErrUserOffline  ErrorCode = "USER_OFFLINE"
	ErrUserNotFound ErrorCode = "USER_NOT_FOUND"
)
