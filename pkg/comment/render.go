package comment

import "time"

type RenderedReply struct {
	Id          ReplyId          `json:"id"`
	UserId      string           `json:"userId,omitempty"`
	DisplayName string           `json:"displayName"`
	Anonymous   bool             `json:"anonymous"`
	Content     string           `json:"content"`
	Timestamp   time.Time        `json:"timestamp"`
	ReplyTo     ReplyId          `json:"replyTo,omitempty"`
	ReplyToName string           `json:"replyToName,omitempty"`
	CanDelete   bool             `json:"canDelete"`
	Replies     []*RenderedReply `json:"replies"`
}

type RenderedComment struct {
	Id          CommentId        `json:"id"`
	UserId      string           `json:"userId,omitempty"`
	DisplayName string           `json:"displayName"`
	Anonymous   bool             `json:"anonymous"`
	Content     string           `json:"content"`
	Timestamp   time.Time        `json:"timestamp"`
	CanDelete   bool             `json:"canDelete"`
	ReplyCount  int              `json:"replyCount"`
	Replies     []*RenderedReply `json:"replies"`
}

// RenderComments builds the per-viewer view of a post's comments. It does not modify its input.
func RenderComments(comments []*Comment, ownerId, viewerId string) []*RenderedComment {
	out := make([]*RenderedComment, 0, len(comments))
	for _, c := range comments {
		if c == nil {
			continue
		}
		rc := &RenderedComment{
			Id:          c.Id,
			DisplayName: displayName(c.Username, c.Anonymous),
			Anonymous:   c.Anonymous,
			Content:     c.Content,
			Timestamp:   c.Timestamp,
			CanDelete:   CanDelete(c.UserId, ownerId, viewerId),
		}
		if !c.Anonymous {
			rc.UserId = c.UserId
		}
		rc.Replies = RenderForest(c.Replies, ownerId, viewerId)
		rc.ReplyCount = Count(c.Replies)
		out = append(out, rc)
	}
	return out
}

// RenderForest renders replies in order, nesting preserved. "Replied to" names are looked up
// in the whole forest, not only among siblings.
func RenderForest(forest []*Reply, ownerId, viewerId string) []*RenderedReply {
	names := make(map[ReplyId]string)
	for _, r := range Walk(forest) {
		if _, ok := names[r.Id]; !ok {
			names[r.Id] = displayName(r.Username, r.Anonymous)
		}
	}

	type frame struct {
		src []*Reply
		dst *[]*RenderedReply
	}
	out := make([]*RenderedReply, 0, len(forest))
	stack := []frame{{forest, &out}}
	seen := make(map[*Reply]struct{})

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, r := range f.src {
			if r == nil {
				continue
			}
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}

			node := &RenderedReply{
				Id:          r.Id,
				DisplayName: displayName(r.Username, r.Anonymous),
				Anonymous:   r.Anonymous,
				Content:     r.Content,
				Timestamp:   r.Timestamp,
				ReplyTo:     r.ReplyTo,
				CanDelete:   CanDelete(r.UserId, ownerId, viewerId),
				Replies:     make([]*RenderedReply, 0, len(r.Replies)),
			}
			if !r.Anonymous {
				node.UserId = r.UserId
			}
			if r.ReplyTo != "" {
				node.ReplyToName = names[r.ReplyTo]
			}
			*f.dst = append(*f.dst, node)
			if len(r.Replies) > 0 {
				stack = append(stack, frame{r.Replies, &node.Replies})
			}
		}
	}
	return out
}
