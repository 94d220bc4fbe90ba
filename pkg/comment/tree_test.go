package comment

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forum/pkg/common"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestComment(t *testing.T, userId string) *Comment {
	c, err := NewComment(Author{UserId: userId, Username: userId}, "nice", false, now)
	require.NoError(t, err)
	return c
}

func newTestReply(t *testing.T, userId, content string, replyTo ReplyId) *Reply {
	r, err := NewReply(Author{UserId: userId, Username: userId}, content, false, replyTo, now)
	require.NoError(t, err)
	return r
}

func TestWalkOrder(t *testing.T) {
	// a
	// ├── b
	// │   └── c
	// └── d
	// e
	c := &Reply{Id: "c"}
	b := &Reply{Id: "b", Replies: []*Reply{c}}
	d := &Reply{Id: "d"}
	a := &Reply{Id: "a", Replies: []*Reply{b, d}}
	e := &Reply{Id: "e"}

	var ids []ReplyId
	var depths []int
	for depth, r := range Walk([]*Reply{a, e}) {
		ids = append(ids, r.Id)
		depths = append(depths, depth)
	}
	assert.Equal(t, []ReplyId{"a", "b", "c", "d", "e"}, ids)
	assert.Equal(t, []int{1, 2, 3, 2, 1}, depths)
}

func TestWalkStopsEarly(t *testing.T) {
	forest := []*Reply{{Id: "a"}, {Id: "b"}, {Id: "c"}}
	visited := 0
	for _, r := range Walk(forest) {
		visited++
		if r.Id == "b" {
			break
		}
	}
	assert.Equal(t, 2, visited)
}

func TestFindReplyLocatesEveryInsertedReply(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	c := newTestComment(t, "u1")

	var inserted []ReplyId
	for i := 0; i < 200; i++ {
		var target ReplyId
		if len(inserted) > 0 && rnd.Intn(4) > 0 {
			target = inserted[rnd.Intn(len(inserted))]
		}
		r := newTestReply(t, fmt.Sprintf("u%d", i%5), "reply", target)
		_, err := InsertReply(c, target, r, Limits{MaxDepth: 1000, MaxReplies: 1000})
		require.NoError(t, err)
		inserted = append(inserted, r.Id)
	}

	for _, id := range inserted {
		found := 0
		for _, r := range Walk(c.Replies) {
			if r.Id == id {
				found++
			}
		}
		assert.Equal(t, 1, found, "reply %s", id)

		r, ok := FindReply(c.Replies, id)
		require.True(t, ok)
		assert.Equal(t, id, r.Id)
	}
	assert.Equal(t, len(inserted), Count(c.Replies))

	_, ok := FindReply(c.Replies, "missing")
	assert.False(t, ok)
}

func TestIndexDeepChainIsIterative(t *testing.T) {
	c := newTestComment(t, "u1")
	lim := Limits{MaxDepth: 100000, MaxReplies: 100000}

	building := Index(c)
	var parent ReplyId
	for i := 0; i < 20000; i++ {
		r := &Reply{Id: ReplyId(fmt.Sprintf("r%d", i)), UserId: "u2"}
		require.NoError(t, building.Attach(parent, r, lim))
		parent = r.Id
	}

	th := Index(c)
	assert.Equal(t, 20000, th.Len())
	assert.Equal(t, 20000, th.Depth(parent))

	rendered := RenderForest(c.Replies, "owner", "viewer")
	require.Len(t, rendered, 1)
}

func TestThreadAttachLimits(t *testing.T) {
	c := newTestComment(t, "u1")
	th := Index(c)

	require.NoError(t, th.Attach("", &Reply{Id: "r1"}, Limits{MaxDepth: 2, MaxReplies: 3}))
	require.NoError(t, th.Attach("r1", &Reply{Id: "r2"}, Limits{MaxDepth: 2, MaxReplies: 3}))

	err := th.Attach("r2", &Reply{Id: "r3"}, Limits{MaxDepth: 2, MaxReplies: 3})
	assert.True(t, errors.Is(err, common.ErrValidation))

	require.NoError(t, th.Attach("", &Reply{Id: "r4"}, Limits{MaxDepth: 2, MaxReplies: 3}))
	err = th.Attach("", &Reply{Id: "r5"}, Limits{MaxDepth: 2, MaxReplies: 3})
	assert.ErrorContains(t, err, "maximum of 3 replies")

	err = th.Attach("nope", &Reply{Id: "r6"}, DefaultLimits)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	err = th.Attach("", &Reply{Id: "r1"}, DefaultLimits)
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestThreadDetachAnyDepth(t *testing.T) {
	c := newTestComment(t, "u1")
	th := Index(c)
	for _, step := range []struct{ parent, id ReplyId }{
		{"", "a"}, {"a", "b"}, {"b", "c"}, {"c", "d"}, {"b", "e"},
	} {
		require.NoError(t, th.Attach(step.parent, &Reply{Id: step.id}, DefaultLimits))
	}

	removed, err := th.Detach("c")
	require.NoError(t, err)
	assert.Equal(t, ReplyId("c"), removed.Id)

	_, ok := th.Find("d")
	assert.False(t, ok, "subtree must leave the index")
	assert.Equal(t, 3, th.Len())

	b, _ := th.Find("b")
	require.Len(t, b.Replies, 1)
	assert.Equal(t, ReplyId("e"), b.Replies[0].Id)

	_, err = th.Detach("c")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestValidateContent(t *testing.T) {
	_, err := ValidateContent("   ")
	assert.True(t, errors.Is(err, common.ErrValidation))

	long := make([]rune, MaxContentLen+1)
	for i := range long {
		long[i] = 'ж'
	}
	_, err = ValidateContent(string(long))
	assert.ErrorContains(t, err, "too long")

	got, err := ValidateContent("  thanks  ")
	require.NoError(t, err)
	assert.Equal(t, "thanks", got)
}

func TestAnonymousRedactedOnWrite(t *testing.T) {
	c, err := NewComment(Author{UserId: "u2", Username: "bob"}, "secret", true, now)
	require.NoError(t, err)
	assert.Equal(t, AnonymousName, c.Username)
	assert.Equal(t, "u2", c.UserId)

	r, err := NewReply(Author{UserId: "u3", Username: "eve"}, "me too", true, "", now)
	require.NoError(t, err)
	assert.Equal(t, AnonymousName, r.Username)
}
