package post

import (
	"strings"
	"time"
	"unicode/utf8"

	"forum/pkg/comment"
	"forum/pkg/common"
	"forum/pkg/likes"
)

// MaxContentLen is the upper bound, in characters, of post text.
const MaxContentLen = 10000

type PostId string

type Image struct {
	URL              string `json:"url" bson:"url"`
	OriginalFilename string `json:"originalFilename" bson:"originalFilename"`
}

type Post struct {
	Id        PostId `json:"id" bson:"id"`
	UserId    string `json:"userId" bson:"userId"`
	Username  string `json:"username" bson:"username"`
	Anonymous bool   `json:"anonymous" bson:"anonymous"`

	Content string  `json:"content" bson:"content"`
	Images  []Image `json:"images" bson:"images"`

	Likes   int       `json:"likes" bson:"likes"`
	LikedBy likes.Set `json:"likedBy" bson:"likedBy"`

	// Newest first.
	Comments  []*comment.Comment `json:"comments" bson:"comments"`
	ViewCount int                `json:"viewCount" bson:"viewCount"`

	IsDeleted bool       `json:"isDeleted" bson:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" bson:"deletedAt,omitempty"`
	DeletedBy string     `json:"deletedBy,omitempty" bson:"deletedBy,omitempty"`

	Created time.Time `json:"created" bson:"created"`
}

// likesOf normalizes stored likes: older documents may carry null or duplicates.
func likesOf(s likes.Set) likes.Set {
	if s == nil {
		return likes.Set{}
	}
	return s.Dedup()
}

// View is what a given viewer sees of a post.
type View struct {
	Id           PostId                     `json:"id"`
	UserId       string                     `json:"userId,omitempty"`
	Username     string                     `json:"username"`
	Anonymous    bool                       `json:"anonymous"`
	Content      string                     `json:"content"`
	Images       []Image                    `json:"images"`
	Likes        int                        `json:"likes"`
	Liked        bool                       `json:"liked"`
	IsOwner      bool                       `json:"isOwner"`
	ViewCount    int                        `json:"viewCount"`
	Created      time.Time                  `json:"created"`
	CommentCount int                        `json:"commentCount"`
	Comments     []*comment.RenderedComment `json:"comments"`
}

func (p *Post) View(viewerId string) *View {
	v := &View{
		Id:        p.Id,
		Username:  p.Username,
		Anonymous: p.Anonymous,
		Content:   p.Content,
		Images:    p.Images,
		Likes:     p.Likes,
		Liked:     viewerId != "" && p.LikedBy.Has(viewerId),
		IsOwner:   viewerId != "" && viewerId == p.UserId,
		ViewCount: p.ViewCount,
		Created:   p.Created,
		Comments:  comment.RenderComments(p.Comments, p.UserId, viewerId),
	}
	if !p.Anonymous {
		v.UserId = p.UserId
	}
	if v.Images == nil {
		v.Images = []Image{}
	}
	for _, c := range p.Comments {
		if c != nil {
			v.CommentCount += 1 + comment.Count(c.Replies)
		}
	}
	return v
}

// NewPostRequest is the body of POST /api/posts.
type NewPostRequest struct {
	Content   string  `json:"content"`
	Images    []Image `json:"images"`
	Anonymous bool    `json:"anonymous"`
}

func (req *NewPostRequest) Validate() error {
	req.Content = strings.TrimSpace(req.Content)
	if utf8.RuneCountInString(req.Content) > MaxContentLen {
		return common.Invalid("content is too long (max %d characters)", MaxContentLen)
	}
	for _, img := range req.Images {
		if strings.TrimSpace(img.URL) == "" {
			return common.Invalid("image url cannot be empty")
		}
	}
	if req.Content == "" && len(req.Images) == 0 {
		return common.Invalid("post needs content or at least one image")
	}
	return nil
}

// CommentRequest is the body of POST /api/posts/{post_id}/comments.
// UserId and Username are optional; when UserId is sent it must match the session.
type CommentRequest struct {
	UserId    string `json:"userId"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Anonymous bool   `json:"anonymous"`
}

// ReplyRequest is the body of POST /api/posts/{post_id}/comments/{comment_id}/replies.
type ReplyRequest struct {
	CommentRequest
	ReplyToId comment.ReplyId `json:"replyToId"`
}

// DeleteCommentRequest is the body of DELETE /api/posts/{post_id}/comments/{comment_id}.
type DeleteCommentRequest struct {
	UserId        string          `json:"userId"`
	ReplyId       comment.ReplyId `json:"replyId"`
	NestedReplyId comment.ReplyId `json:"nestedReplyId"`
}
