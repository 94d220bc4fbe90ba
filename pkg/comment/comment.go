package comment

import (
	"strings"
	"time"
	"unicode/utf8"

	"forum/pkg/common"
)

// AnonymousName replaces the username of anonymous comments and replies when they are written.
const AnonymousName = "Anonymous"

// MaxContentLen is the upper bound, in characters, of comment and reply text.
const MaxContentLen = 2000

type (
	CommentId string
	ReplyId   string
)

type Comment struct {
	Id        CommentId `json:"id" bson:"id"`
	UserId    string    `json:"userId" bson:"userId"`
	Username  string    `json:"username" bson:"username"`
	Anonymous bool      `json:"anonymous" bson:"anonymous"`
	Content   string    `json:"content" bson:"content"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Replies   []*Reply  `json:"replies" bson:"replies"`
}

// Reply is owned by exactly one parent: a Comment or another Reply.
// ReplyTo names the reply being answered and is independent of where the node is attached.
type Reply struct {
	Id        ReplyId   `json:"id" bson:"id"`
	UserId    string    `json:"userId" bson:"userId"`
	Username  string    `json:"username" bson:"username"`
	Anonymous bool      `json:"anonymous" bson:"anonymous"`
	Content   string    `json:"content" bson:"content"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	ReplyTo   ReplyId   `json:"replyTo,omitempty" bson:"replyTo,omitempty"`
	Replies   []*Reply  `json:"replies" bson:"replies"`
}

type Author struct {
	UserId   string
	Username string
}

// Limits bound the size of a single comment thread.
type Limits struct {
	MaxDepth   int
	MaxReplies int
}

var DefaultLimits = Limits{MaxDepth: 64, MaxReplies: 2000}

// ValidateContent trims the text and checks it against MaxContentLen.
func ValidateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", common.Invalid("content cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxContentLen {
		return "", common.Invalid("content is too long (max %d characters)", MaxContentLen)
	}
	return content, nil
}

func displayName(username string, anonymous bool) string {
	if anonymous {
		return AnonymousName
	}
	return username
}

func NewComment(author Author, content string, anonymous bool, now time.Time) (*Comment, error) {
	if author.UserId == "" {
		return nil, common.Invalid("userId is required")
	}
	content, err := ValidateContent(content)
	if err != nil {
		return nil, err
	}
	return &Comment{
		Id:        CommentId(common.NewId()),
		UserId:    author.UserId,
		Username:  displayName(author.Username, anonymous),
		Anonymous: anonymous,
		Content:   content,
		Timestamp: now,
		Replies:   []*Reply{},
	}, nil
}

func NewReply(author Author, content string, anonymous bool, replyTo ReplyId, now time.Time) (*Reply, error) {
	if author.UserId == "" {
		return nil, common.Invalid("userId is required")
	}
	content, err := ValidateContent(content)
	if err != nil {
		return nil, err
	}
	return &Reply{
		Id:        ReplyId(common.NewId()),
		UserId:    author.UserId,
		Username:  displayName(author.Username, anonymous),
		Anonymous: anonymous,
		Content:   content,
		Timestamp: now,
		ReplyTo:   replyTo,
		Replies:   []*Reply{},
	}, nil
}

// CanDelete reports whether requester may remove a node written by authorId on a post owned by ownerId.
func CanDelete(authorId, ownerId, requesterId string) bool {
	if requesterId == "" {
		return false
	}
	return requesterId == authorId || requesterId == ownerId
}
