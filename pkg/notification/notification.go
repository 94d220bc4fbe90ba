package notification

import (
	"time"
	"unicode/utf8"
)

type Kind string

const (
	KindComment Kind = "comment"
	KindReply   Kind = "reply"
	KindLike    Kind = "like"
)

const snippetLen = 80

type Notification struct {
	Id        string    `json:"id"`
	UserId    string    `json:"userId"`
	Kind      Kind      `json:"type"`
	ActorId   string    `json:"actorId,omitempty"`
	ActorName string    `json:"actorName"`
	PostId    string    `json:"postId"`
	CommentId string    `json:"commentId,omitempty"`
	ReplyId   string    `json:"replyId,omitempty"`
	Snippet   string    `json:"snippet,omitempty"`
	Created   time.Time `json:"created"`
	Read      bool      `json:"read"`
}

// Snippet shortens text for display in the inbox.
func Snippet(text string) string {
	if utf8.RuneCountInString(text) <= snippetLen {
		return text
	}
	r := []rune(text)
	return string(r[:snippetLen]) + "…"
}
