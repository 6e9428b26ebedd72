package store

// ChatMessage is one role-tagged turn inside a persisted chat transcript.
type ChatMessage struct {
	Role    string `json:"role"` // user | assistant
	Content string `json:"content"`
}

// Chat represents a persisted conversation transcript.
type Chat struct {
	UID       string
	Name      string
	Messages  []ChatMessage
	ID        int32
	UserID    int32
	CreatedTs int64
	UpdatedTs int64
}

// FindChat specifies the conditions for finding chats.
type FindChat struct {
	ID     *int32
	UID    *string
	UserID *int32
}

// UpdateChat specifies a partial chat update.
type UpdateChat struct {
	Name      *string
	Messages  *[]ChatMessage
	UpdatedTs *int64
	ID        int32
}

// DeleteChat specifies the chat to delete.
type DeleteChat struct {
	ID int32
}
