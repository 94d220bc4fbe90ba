package comment

import (
	"iter"

	"forum/pkg/common"
)

// Walk yields every reply of the forest with its depth (direct children of a comment are at 1),
// depth-first, children in slice order. A node reachable twice is yielded once.
func Walk(forest []*Reply) iter.Seq2[int, *Reply] {
	return func(yield func(int, *Reply) bool) {
		type item struct {
			r     *Reply
			depth int
		}
		stack := make([]item, 0, len(forest))
		for i := len(forest) - 1; i >= 0; i-- {
			stack = append(stack, item{forest[i], 1})
		}
		seen := make(map[*Reply]struct{})
		for len(stack) > 0 {
			it := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if it.r == nil {
				continue
			}
			if _, ok := seen[it.r]; ok {
				continue
			}
			seen[it.r] = struct{}{}
			if !yield(it.depth, it.r) {
				return
			}
			for i := len(it.r.Replies) - 1; i >= 0; i-- {
				stack = append(stack, item{it.r.Replies[i], it.depth + 1})
			}
		}
	}
}

// FindReply returns the first reply with the given id in depth-first order.
func FindReply(forest []*Reply, id ReplyId) (*Reply, bool) {
	for _, r := range Walk(forest) {
		if r.Id == id {
			return r, true
		}
	}
	return nil, false
}

// Count returns the number of replies in the forest.
func Count(forest []*Reply) int {
	n := 0
	for range Walk(forest) {
		n++
	}
	return n
}

// Thread is a flat index over one comment's reply tree: id -> node, id -> parent id, id -> depth.
// The empty ReplyId stands for the comment itself.
// The index is only valid while the tree is changed through the Thread.
type Thread struct {
	root    *Comment
	nodes   map[ReplyId]*Reply
	parents map[ReplyId]ReplyId
	depths  map[ReplyId]int
}

func Index(c *Comment) *Thread {
	t := &Thread{
		root:    c,
		nodes:   make(map[ReplyId]*Reply),
		parents: make(map[ReplyId]ReplyId),
		depths:  make(map[ReplyId]int),
	}
	type item struct {
		r      *Reply
		parent ReplyId
		depth  int
	}
	stack := make([]item, 0, len(c.Replies))
	for i := len(c.Replies) - 1; i >= 0; i-- {
		stack = append(stack, item{c.Replies[i], "", 1})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.r == nil {
			continue
		}
		if _, dup := t.nodes[it.r.Id]; dup {
			continue
		}
		t.nodes[it.r.Id] = it.r
		t.parents[it.r.Id] = it.parent
		t.depths[it.r.Id] = it.depth
		for i := len(it.r.Replies) - 1; i >= 0; i-- {
			stack = append(stack, item{it.r.Replies[i], it.r.Id, it.depth + 1})
		}
	}
	return t
}

func (t *Thread) Comment() *Comment { return t.root }

func (t *Thread) Len() int { return len(t.nodes) }

func (t *Thread) Find(id ReplyId) (*Reply, bool) {
	r, ok := t.nodes[id]
	return r, ok
}

// Parent returns the parent id of a reply; the empty id means the comment.
func (t *Thread) Parent(id ReplyId) (ReplyId, bool) {
	p, ok := t.parents[id]
	return p, ok
}

func (t *Thread) Depth(id ReplyId) int {
	if id == "" {
		return 0
	}
	return t.depths[id]
}

// AuthorOf returns the user id of the comment (empty id) or of the reply.
func (t *Thread) AuthorOf(id ReplyId) string {
	if id == "" {
		return t.root.UserId
	}
	if r, ok := t.nodes[id]; ok {
		return r.UserId
	}
	return ""
}

func (t *Thread) children(id ReplyId) *[]*Reply {
	if id == "" {
		return &t.root.Replies
	}
	return &t.nodes[id].Replies
}

// Attach appends r as the last child of parent (the comment when parent is empty).
func (t *Thread) Attach(parent ReplyId, r *Reply, lim Limits) error {
	if parent != "" {
		if _, ok := t.nodes[parent]; !ok {
			return common.NotFound("reply %s not found", parent)
		}
	}
	if _, dup := t.nodes[r.Id]; dup {
		return common.Invalid("reply %s already exists", r.Id)
	}
	depth := t.Depth(parent) + 1
	if lim.MaxDepth > 0 && depth > lim.MaxDepth {
		return common.Invalid("replies cannot be nested deeper than %d levels", lim.MaxDepth)
	}
	if lim.MaxReplies > 0 && t.Len()+1 > lim.MaxReplies {
		return common.Invalid("comment already has the maximum of %d replies", lim.MaxReplies)
	}

	if r.Replies == nil {
		r.Replies = []*Reply{}
	}
	kids := t.children(parent)
	*kids = append(*kids, r)

	t.nodes[r.Id] = r
	t.parents[r.Id] = parent
	t.depths[r.Id] = depth
	return nil
}

// Detach splices the reply out of its parent and drops its whole subtree from the index.
func (t *Thread) Detach(id ReplyId) (*Reply, error) {
	r, ok := t.nodes[id]
	if !ok {
		return nil, common.NotFound("reply %s not found", id)
	}
	kids := t.children(t.parents[id])
	*kids = removeReply(*kids, id)

	for _, sub := range Walk([]*Reply{r}) {
		delete(t.nodes, sub.Id)
		delete(t.parents, sub.Id)
		delete(t.depths, sub.Id)
	}
	return r, nil
}

func indexOfReply(replies []*Reply, id ReplyId) int {
	for i, r := range replies {
		if r != nil && r.Id == id {
			return i
		}
	}
	return -1
}

func removeReply(replies []*Reply, id ReplyId) []*Reply {
	idx := indexOfReply(replies, id)
	if idx < 0 {
		return replies
	}
	return append(replies[:idx], replies[idx+1:]...)
}
