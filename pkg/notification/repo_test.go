package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forum/pkg/sessions"
	"forum/pkg/user"
)

func newTestRepo(t *testing.T, keep int) (*Repo, *miniredis.Miniredis, *time.Time) {
	mr := miniredis.RunT(t)
	pool := &redis.Pool{
		MaxIdle: 3,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", mr.Addr())
		},
	}
	t.Cleanup(func() { pool.Close() })

	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewRepo(pool, keep)
	repo.now = func() time.Time { return clock }
	return repo, mr, &clock
}

func TestNotifyAndList(t *testing.T) {
	repo, _, clock := newTestRepo(t, 10)
	ctx := context.Background()

	require.NoError(t, repo.Notify(ctx, &Notification{UserId: "u2", ActorId: "u3", Kind: KindReply, PostId: "p1"}))
	*clock = clock.Add(time.Minute)
	require.NoError(t, repo.Notify(ctx, &Notification{UserId: "u2", ActorId: "u1", Kind: KindLike, PostId: "p1"}))

	items, unread, err := repo.List(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, unread)
	assert.Equal(t, KindLike, items[0].Kind, "newest first")
	assert.NotEmpty(t, items[0].Id)

	*clock = clock.Add(time.Minute)
	require.NoError(t, repo.MarkAllRead(ctx, "u2"))
	*clock = clock.Add(time.Minute)
	require.NoError(t, repo.Notify(ctx, &Notification{UserId: "u2", ActorId: "u4", Kind: KindComment, PostId: "p2"}))

	items, unread, err = repo.List(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, 1, unread)
	assert.False(t, items[0].Read)
	assert.True(t, items[1].Read)
}

func TestNotifySkipsSelf(t *testing.T) {
	repo, mr, _ := newTestRepo(t, 10)
	require.NoError(t, repo.Notify(context.Background(), &Notification{UserId: "u1", ActorId: "u1", Kind: KindReply}))
	assert.False(t, mr.Exists(inboxNS+"u1"))
}

func TestNotifyTrimsInbox(t *testing.T) {
	repo, mr, _ := newTestRepo(t, 3)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Notify(context.Background(), &Notification{UserId: "u1", ActorId: "u2", Kind: KindLike}))
	}
	inbox, err := mr.List(inboxNS + "u1")
	require.NoError(t, err)
	assert.Len(t, inbox, 3)
}

func TestNotifyRedisError(t *testing.T) {
	repo, mr, _ := newTestRepo(t, 3)
	mr.SetError("connection refused")
	err := repo.Notify(context.Background(), &Notification{UserId: "u1", ActorId: "u2"})
	assert.ErrorContains(t, err, "connection refused")
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", Snippet("short"))
	long := ""
	for i := 0; i < 100; i++ {
		long += "я"
	}
	assert.Equal(t, snippetLen+1, len([]rune(Snippet(long))))
}

func TestHandlers(t *testing.T) {
	repo, _, _ := newTestRepo(t, 10)
	require.NoError(t, repo.Notify(context.Background(), &Notification{UserId: "u2", ActorId: "u3", Kind: KindReply}))
	h := NewHandler(repo)

	t.Run("unauthorized", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.List(w, httptest.NewRequest(http.MethodGet, "/api/notifications", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("list and mark read", func(t *testing.T) {
		ctx := sessions.WithAuthUser(context.Background(), &user.User{Id: "u2"})

		w := httptest.NewRecorder()
		h.List(w, httptest.NewRequest(http.MethodGet, "/api/notifications", nil).WithContext(ctx))
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Success       bool            `json:"success"`
			Notifications []*Notification `json:"notifications"`
			Unread        int             `json:"unread"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.True(t, body.Success)
		assert.Len(t, body.Notifications, 1)
		assert.Equal(t, 1, body.Unread)

		w = httptest.NewRecorder()
		h.MarkRead(w, httptest.NewRequest(http.MethodPost, "/api/notifications/read", nil).WithContext(ctx))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
