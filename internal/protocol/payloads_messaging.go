package protocol

// ChatMessage is both the send request (To set, From empty) and the
// relayed notification (From set by the server).
type ChatMessage struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Content string `json:"content"`
}

// ChatMessageDelivered acks a ChatMessage back to its sender.
type ChatMessageDelivered struct {
	OriginalID string `json:"originalId"`
}

// ChatTyping is a typing-indicator toggle.
type ChatTyping struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to"`
	IsTyping bool   `json:"isTyping"`
}

// Nudge is an attention-getting "buzz" with no content.
type Nudge struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
}

// StickerSend carries an opaque sticker identifier the server never interprets.
type StickerSend struct {
	From      string `json:"from,omitempty"`
	To        string `json:"to"`
	IsGroup   bool   `json:"isGroup"`
	StickerID string `json:"stickerId"`
}

// GroupPublic describes a group for client rendering.
type GroupPublic struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Owner       string   `json:"owner"`
	Members     []string `json:"members"`
}

// CreateGroup requests a new group.
type CreateGroup struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreateGroupAck replies to CreateGroup.
type CreateGroupAck struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Group   *GroupPublic `json:"group,omitempty"`
}

// InviteToGroup asks the server to invite a user to a group the caller owns/belongs to.
type InviteToGroup struct {
	GroupID  string `json:"groupId"`
	Username string `json:"username"`
}

// GroupInviteReceived notifies the invitee.
type GroupInviteReceived struct {
	GroupID   string `json:"groupId"`
	GroupName string `json:"groupName"`
	Inviter   string `json:"inviter"`
}

// JoinGroup accepts a pending invite (or joins directly, if the server allows it).
type JoinGroup struct {
	GroupID string `json:"groupId"`
}

// LeaveGroup removes the caller from a group.
type LeaveGroup struct {
	GroupID string `json:"groupId"`
}

// GroupMemberUpdate notifies members of a membership or ownership change.
type GroupMemberUpdate struct {
	GroupID string   `json:"groupId"`
	Members []string `json:"members"`
	Owner   string   `json:"owner"`
	Action  string   `json:"action"` // "joined" | "left" | "removed"
	Subject string   `json:"subject,omitempty"`
}

// GroupMessage is both the send request and the relayed notification.
type GroupMessage struct {
	From    string `json:"from,omitempty"`
	GroupID string `json:"groupId"`
	Content string `json:"content"`
}

// AddContact requests a contact-list addition.
type AddContact struct {
	Username string `json:"username"`
}

// ContactRequest notifies the target that someone added them as a contact.
type ContactRequest struct {
	From string `json:"from"`
}

// RemoveContact requests a contact-list removal.
type RemoveContact struct {
	Username string `json:"username"`
}
