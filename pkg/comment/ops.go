package comment

import (
	"forum/pkg/common"
)

// FindComment returns the index and the comment with the given id.
func FindComment(comments []*Comment, id CommentId) (int, *Comment) {
	for i, c := range comments {
		if c != nil && c.Id == id {
			return i, c
		}
	}
	return -1, nil
}

// Prepend puts c in front, keeping comments newest-first.
func Prepend(comments []*Comment, c *Comment) []*Comment {
	out := make([]*Comment, 0, len(comments)+1)
	out = append(out, c)
	return append(out, comments...)
}

// InsertReply attaches r under the comment, or under the reply replyToId when it is set.
// It returns the user id of the immediate parent's author, the one to notify.
func InsertReply(c *Comment, replyToId ReplyId, r *Reply, lim Limits) (string, error) {
	t := Index(c)
	if replyToId != "" {
		if _, ok := t.Find(replyToId); !ok {
			return "", common.NotFound("reply %s not found", replyToId)
		}
	}
	if err := t.Attach(replyToId, r, lim); err != nil {
		return "", err
	}
	return t.AuthorOf(replyToId), nil
}

// DeleteRequest addresses a comment, a reply directly under it, or a reply directly under that reply.
// Moderator skips the author/owner check.
type DeleteRequest struct {
	CommentId     CommentId
	ReplyId       ReplyId
	NestedReplyId ReplyId
	RequesterId   string
	Moderator     bool
}

func (req DeleteRequest) allowed(authorId, ownerId string) bool {
	return req.Moderator || CanDelete(authorId, ownerId, req.RequesterId)
}

// DeleteNode removes the node addressed by req from comments and returns the updated slice.
// Lookups are one level deep each: ReplyId among the comment's direct replies,
// NestedReplyId among that reply's direct replies.
func DeleteNode(comments []*Comment, ownerId string, req DeleteRequest) ([]*Comment, error) {
	idx, c := FindComment(comments, req.CommentId)
	if c == nil {
		return comments, common.NotFound("comment not found")
	}

	switch {
	case req.NestedReplyId != "":
		if req.ReplyId == "" {
			return comments, common.Invalid("nestedReplyId requires replyId")
		}
		ri := indexOfReply(c.Replies, req.ReplyId)
		if ri < 0 {
			return comments, common.NotFound("reply not found")
		}
		parent := c.Replies[ri]
		ni := indexOfReply(parent.Replies, req.NestedReplyId)
		if ni < 0 {
			return comments, common.NotFound("nested reply not found")
		}
		if !req.allowed(parent.Replies[ni].UserId, ownerId) {
			return comments, common.Forbidden("only the author or the post owner can delete this reply")
		}
		parent.Replies = removeReply(parent.Replies, req.NestedReplyId)

	case req.ReplyId != "":
		ri := indexOfReply(c.Replies, req.ReplyId)
		if ri < 0 {
			return comments, common.NotFound("reply not found")
		}
		if !req.allowed(c.Replies[ri].UserId, ownerId) {
			return comments, common.Forbidden("only the author or the post owner can delete this reply")
		}
		c.Replies = removeReply(c.Replies, req.ReplyId)

	default:
		if !req.allowed(c.UserId, ownerId) {
			return comments, common.Forbidden("only the author or the post owner can delete this comment")
		}
		comments = append(comments[:idx], comments[idx+1:]...)
	}
	return comments, nil
}

// DeleteReply removes a reply at any depth under the comment, with its subtree.
func DeleteReply(c *Comment, replyId ReplyId, ownerId string, req DeleteRequest) (*Reply, error) {
	t := Index(c)
	r, ok := t.Find(replyId)
	if !ok {
		return nil, common.NotFound("reply not found")
	}
	if !req.allowed(r.UserId, ownerId) {
		return nil, common.Forbidden("only the author or the post owner can delete this reply")
	}
	return t.Detach(replyId)
}
