package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gomodule/redigo/redis"

	"forum/pkg/common"
)

const (
	inboxNS = "forumNotifications:"
	seenNS  = "forumNotificationsSeen:"
)

type RedisPool interface {
	Get() redis.Conn
}

// Repo keeps one newest-first inbox list per user in Redis.
type Repo struct {
	pool RedisPool
	keep int
	now  func() time.Time
}

func NewRepo(pool RedisPool, keep int) *Repo {
	return &Repo{pool: pool, keep: keep, now: time.Now}
}

// Notify stores n in the recipient's inbox. Self-notifications are dropped.
func (r *Repo) Notify(ctx context.Context, n *Notification) error {
	if n.UserId == "" || n.UserId == n.ActorId {
		return nil
	}
	if n.Id == "" {
		n.Id = common.NewId()
	}
	if n.Created.IsZero() {
		n.Created = r.now()
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notification/repo: failed encoding notification: %w", err)
	}

	conn := r.pool.Get()
	defer conn.Close()

	key := inboxNS + n.UserId
	if _, err := conn.Do("LPUSH", key, data); err != nil {
		return fmt.Errorf("notification/repo: failed LPUSH: %w", err)
	}
	if _, err := conn.Do("LTRIM", key, 0, r.keep-1); err != nil {
		return fmt.Errorf("notification/repo: failed LTRIM: %w", err)
	}
	return nil
}

// List returns the user's notifications, newest first, and the number of unread ones.
func (r *Repo) List(ctx context.Context, userId string) ([]*Notification, int, error) {
	conn := r.pool.Get()
	defer conn.Close()

	raw, err := redis.ByteSlices(conn.Do("LRANGE", inboxNS+userId, 0, -1))
	if err != nil {
		return nil, 0, fmt.Errorf("notification/repo: failed LRANGE: %w", err)
	}

	seenAt, err := r.seenAt(conn, userId)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*Notification, 0, len(raw))
	unread := 0
	for _, item := range raw {
		n := new(Notification)
		if err := json.Unmarshal(item, n); err != nil {
			return nil, 0, fmt.Errorf("notification/repo: failed decoding notification: %w", err)
		}
		n.Read = !n.Created.After(seenAt)
		if !n.Read {
			unread++
		}
		out = append(out, n)
	}
	return out, unread, nil
}

// MarkAllRead marks everything received so far as read.
func (r *Repo) MarkAllRead(ctx context.Context, userId string) error {
	conn := r.pool.Get()
	defer conn.Close()

	ts := strconv.FormatInt(r.now().UnixNano(), 10)
	if _, err := conn.Do("SET", seenNS+userId, ts); err != nil {
		return fmt.Errorf("notification/repo: failed SET: %w", err)
	}
	return nil
}

func (r *Repo) seenAt(conn redis.Conn, userId string) (time.Time, error) {
	ts, err := redis.Int64(conn.Do("GET", seenNS+userId))
	if err == redis.ErrNil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("notification/repo: failed GET: %w", err)
	}
	return time.Unix(0, ts), nil
}
