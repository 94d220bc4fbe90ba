package post

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"forum/pkg/comment"
	. "forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/sessions"
	"forum/pkg/user"
)

type IPostService interface {
	ListPosts(ctx context.Context) ([]*Post, error)
	UserPosts(ctx context.Context, userId string) ([]*Post, error)
	GetPost(ctx context.Context, id PostId) (*Post, error)
	CreatePost(ctx context.Context, u *user.User, req NewPostRequest) (*Post, error)
	DeletePost(ctx context.Context, u *user.User, id PostId) error

	Like(ctx context.Context, u *user.User, id PostId) (*Post, error)
	Unlike(ctx context.Context, u *user.User, id PostId) (*Post, error)

	AddComment(ctx context.Context, u *user.User, postId PostId, req CommentRequest) (*comment.Comment, error)
	ReplyComment(ctx context.Context, u *user.User, postId PostId, commentId comment.CommentId, req ReplyRequest) (*comment.Reply, error)
	DeleteComment(ctx context.Context, u *user.User, postId PostId, req comment.DeleteRequest) error
	DeleteReply(ctx context.Context, u *user.User, postId PostId, commentId comment.CommentId, replyId comment.ReplyId, moderator bool) error
}

type PostHandler struct {
	Service IPostService
}

func NewPostHandler(s IPostService) *PostHandler {
	return &PostHandler{
		Service: s,
	}
}

func viewerId(r *http.Request) string {
	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		return ""
	}
	return u.Id
}

func views(posts []*Post, viewer string) []*View {
	res := make([]*View, 0, len(posts))
	for _, p := range posts {
		res = append(res, p.View(viewer))
	}
	return res
}

func (ph PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := ph.Service.ListPosts(r.Context())
	if err != nil {
		logger.Log(r.Context()).Errorf("can't load posts from the repo: %v", err)
		WriteErr(w, err)
		return
	}

	WriteOK(w, http.StatusOK, "posts", views(posts, viewerId(r)))
}

func (ph PostHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	userId := mux.Vars(r)["user_id"]

	userPosts, err := ph.Service.UserPosts(r.Context(), userId)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't load posts of user %s: %v", userId, err)
		WriteErr(w, err)
		return
	}

	WriteOK(w, http.StatusOK, "posts", views(userPosts, viewerId(r)))
}

func (ph PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postId := mux.Vars(r)["post_id"]

	post, err := ph.Service.GetPost(r.Context(), PostId(postId))
	if err != nil {
		logger.Log(r.Context()).Infof("can't get post with id %s: %v", postId, err)
		WriteErr(w, err)
		return
	}

	WriteOK(w, http.StatusOK, "post", post.View(viewerId(r)))
}

func (ph *PostHandler) Add(w http.ResponseWriter, r *http.Request) {
	author, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	req := NewPostRequest{}
	if err := ParseReqBody(r.Body, &req); err != nil {
		logger.Log(r.Context()).Infof("can't parse post from request body: %v", err)
		WriteMsg(w, "can't parse post", http.StatusBadRequest)
		return
	}

	post, err := ph.Service.CreatePost(r.Context(), author, req)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't add post: %v", err)
		WriteErr(w, err)
		return
	}

	WriteOK(w, http.StatusCreated, "post", post.View(author.Id))
}

func (ph *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	postId := mux.Vars(r)["post_id"]

	authUser, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	if err := ph.Service.DeletePost(r.Context(), authUser, PostId(postId)); err != nil {
		logger.Log(r.Context()).Errorf("can't remove post %s: %v", postId, err)
		WriteErr(w, err)
		return
	}

	WriteMsg(w, "post deleted", http.StatusOK)
}

func (ph *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	ph.like(w, r, ph.Service.Like)
}

func (ph *PostHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	ph.like(w, r, ph.Service.Unlike)
}

func (ph *PostHandler) like(w http.ResponseWriter, r *http.Request, do func(context.Context, *user.User, PostId) (*Post, error)) {
	postId := mux.Vars(r)["post_id"]

	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	post, err := do(r.Context(), u, PostId(postId))
	if err != nil {
		logger.Log(r.Context()).Errorf("can't change likes of post %s: %v", postId, err)
		WriteErr(w, err)
		return
	}

	WriteOK(w, http.StatusOK, "post", post.View(u.Id))
}

func (ph *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	postId := mux.Vars(r)["post_id"]

	commenter, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	req := CommentRequest{}
	if err := ParseReqBody(r.Body, &req); err != nil {
		logger.Log(r.Context()).Infof("can't get comment body: %v", err)
		WriteMsg(w, "failed parsing comment body", http.StatusBadRequest)
		return
	}

	c, err := ph.Service.AddComment(r.Context(), commenter, PostId(postId), req)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't add comment to post %s: %v", postId, err)
		WriteErr(w, err)
		return
	}

	WriteOK(w, http.StatusCreated, "comment", c)
}

func (ph *PostHandler) ReplyComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	postId := PostId(vars["post_id"])
	commentId := comment.CommentId(vars["comment_id"])

	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	req := ReplyRequest{}
	if err := ParseReqBody(r.Body, &req); err != nil {
		logger.Log(r.Context()).Infof("can't get reply body: %v", err)
		WriteMsg(w, "failed parsing reply body", http.StatusBadRequest)
		return
	}

	reply, err := ph.Service.ReplyComment(r.Context(), u, postId, commentId, req)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't reply to comment %s of post %s: %v", commentId, postId, err)
		WriteErr(w, err)
		return
	}

	WriteOK(w, http.StatusCreated, "reply", reply)
}

// DeleteComment handles the body-addressed delete: the comment itself, or replyId and
// nestedReplyId one level each below it.
func (ph *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	postId := PostId(vars["post_id"])
	commentId := comment.CommentId(vars["comment_id"])

	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	body := DeleteCommentRequest{}
	if err := ParseReqBody(r.Body, &body); err != nil {
		logger.Log(r.Context()).Infof("can't get delete body: %v", err)
		WriteMsg(w, "failed parsing request body", http.StatusBadRequest)
		return
	}
	if body.UserId != "" && body.UserId != u.Id {
		WriteMsg(w, "userId does not match the session", http.StatusForbidden)
		return
	}

	req := comment.DeleteRequest{
		CommentId:     commentId,
		ReplyId:       body.ReplyId,
		NestedReplyId: body.NestedReplyId,
	}
	if err := ph.Service.DeleteComment(r.Context(), u, postId, req); err != nil {
		logger.Log(r.Context()).Errorf("can't remove comment %s from post %s: %v", commentId, postId, err)
		WriteErr(w, err)
		return
	}

	WriteMsg(w, "deleted", http.StatusOK)
}

func (ph *PostHandler) DeleteReply(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	postId := PostId(vars["post_id"])
	commentId := comment.CommentId(vars["comment_id"])
	replyId := comment.ReplyId(vars["reply_id"])

	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	if err := ph.Service.DeleteReply(r.Context(), u, postId, commentId, replyId, false); err != nil {
		logger.Log(r.Context()).Errorf("can't remove reply %s from post %s: %v", replyId, postId, err)
		WriteErr(w, err)
		return
	}

	WriteMsg(w, "deleted", http.StatusOK)
}
