package admin

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"forum/pkg/comment"
	. "forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/post"
	"forum/pkg/sessions"
	"forum/pkg/user"
)

type (
	IPosts interface {
		Stats(ctx context.Context) (*post.Stats, error)
		AllPosts(ctx context.Context) ([]*post.Post, error)
		HardDelete(ctx context.Context, id post.PostId) error
		DeleteComment(ctx context.Context, u *user.User, postId post.PostId, req comment.DeleteRequest) error
		DeleteReply(ctx context.Context, u *user.User, postId post.PostId, commentId comment.CommentId, replyId comment.ReplyId, moderator bool) error
	}

	IUsers interface {
		Count(ctx context.Context) (int, error)
		SetBanned(ctx context.Context, uid string, banned bool) error
	}

	ISessions interface {
		RevokeUserSessions(userId string) error
	}
)

// Handler serves /api/admin. Routes must be wrapped with middleware.RequireAdmin.
type Handler struct {
	Posts    IPosts
	Users    IUsers
	Sessions ISessions
}

func NewHandler(p IPosts, u IUsers, s ISessions) *Handler {
	return &Handler{Posts: p, Users: u, Sessions: s}
}

type Stats struct {
	Users int `json:"users"`
	*post.Stats
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Posts.Stats(r.Context())
	if err != nil {
		logger.Log(r.Context()).Errorf("admin: can't collect post stats: %v", err)
		WriteErr(w, err)
		return
	}
	users, err := h.Users.Count(r.Context())
	if err != nil {
		logger.Log(r.Context()).Errorf("admin: can't count users: %v", err)
		WriteErr(w, err)
		return
	}

	WriteOK(w, http.StatusOK, "stats", Stats{Users: users, Stats: ps})
}

// AllPosts lists every post, soft-deleted ones included, as stored.
func (h *Handler) AllPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Posts.AllPosts(r.Context())
	if err != nil {
		logger.Log(r.Context()).Errorf("admin: can't load posts: %v", err)
		WriteErr(w, err)
		return
	}
	WriteOK(w, http.StatusOK, "posts", posts)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	postId := post.PostId(mux.Vars(r)["post_id"])

	if err := h.Posts.HardDelete(r.Context(), postId); err != nil {
		logger.Log(r.Context()).Errorf("admin: can't delete post %s: %v", postId, err)
		WriteErr(w, err)
		return
	}
	logger.Log(r.Context()).Infof("admin: post %s deleted", postId)
	WriteMsg(w, "post deleted", http.StatusOK)
}

// DeleteComment removes a comment, or the reply given in ?replyId= at any depth under it.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	postId := post.PostId(vars["post_id"])
	commentId := comment.CommentId(vars["comment_id"])
	replyId := comment.ReplyId(r.URL.Query().Get("replyId"))

	admin, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	if replyId != "" {
		err = h.Posts.DeleteReply(r.Context(), admin, postId, commentId, replyId, true)
	} else {
		err = h.Posts.DeleteComment(r.Context(), admin, postId, comment.DeleteRequest{CommentId: commentId, Moderator: true})
	}
	if err != nil {
		logger.Log(r.Context()).Errorf("admin: can't moderate comment %s of post %s: %v", commentId, postId, err)
		WriteErr(w, err)
		return
	}
	WriteMsg(w, "deleted", http.StatusOK)
}

func (h *Handler) Ban(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, true)
}

func (h *Handler) Unban(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, false)
}

func (h *Handler) setBanned(w http.ResponseWriter, r *http.Request, banned bool) {
	userId := mux.Vars(r)["user_id"]

	admin, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}
	if banned && admin.Id == userId {
		WriteErr(w, Invalid("admins can't ban themselves"))
		return
	}

	if err := h.Users.SetBanned(r.Context(), userId, banned); err != nil {
		logger.Log(r.Context()).Errorf("admin: can't change ban of user %s: %v", userId, err)
		WriteErr(w, err)
		return
	}
	if banned {
		// Auth rejects banned users anyway; this just drops their tokens early.
		if err := h.Sessions.RevokeUserSessions(userId); err != nil {
			logger.Log(r.Context()).Warnf("admin: can't revoke sessions of user %s: %v", userId, err)
		}
	}
	logger.Log(r.Context()).Infof("admin %s set banned=%v for user %s", admin.Id, banned, userId)
	WriteMsg(w, "ok", http.StatusOK)
}
