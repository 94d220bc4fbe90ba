package post

import (
	"context"
	"time"

	"forum/pkg/comment"
	"forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/notification"
	"forum/pkg/user"
)

type (
	IPostRepo interface {
		GetAll(ctx context.Context, withDeleted bool) ([]*Post, error)
		GetById(ctx context.Context, id PostId) (*Post, error)
		GetUserPosts(ctx context.Context, userId string) ([]*Post, error)
		Add(ctx context.Context, p *Post) (PostId, error)
		Update(ctx context.Context, p *Post) error
		IncViews(ctx context.Context, id PostId) error
		Delete(ctx context.Context, id PostId) error
		Count(ctx context.Context, deleted bool) (int64, error)
	}

	INotifier interface {
		Notify(ctx context.Context, n *notification.Notification) error
	}

	IUsers interface {
		IsActive(ctx context.Context, userId string) (bool, error)
		AddActivity(ctx context.Context, userId string, points int) error
	}
)

type Service struct {
	Repo     IPostRepo
	Notifier INotifier
	Users    IUsers
	Limits   comment.Limits

	now   func() time.Time
	locks *postLocks
}

func NewService(repo IPostRepo, notifier INotifier, users IUsers, limits comment.Limits) *Service {
	return &Service{
		Repo:     repo,
		Notifier: notifier,
		Users:    users,
		Limits:   limits,
		now:      time.Now,
		locks:    newPostLocks(),
	}
}

// Stats is the content summary shown on the admin dashboard.
type Stats struct {
	Posts        int64 `json:"posts"`
	DeletedPosts int64 `json:"deletedPosts"`
	Comments     int   `json:"comments"`
	Replies      int   `json:"replies"`
}

func (s *Service) checkActive(ctx context.Context, u *user.User) error {
	if u == nil || u.Id == "" {
		return common.Invalid("userId is required")
	}
	active, err := s.Users.IsActive(ctx, u.Id)
	if err != nil {
		return err
	}
	if !active {
		return common.Forbidden("user is banned")
	}
	return nil
}

// mutate loads the post, applies fn and stores the result while holding the post's lock.
func (s *Service) mutate(ctx context.Context, id PostId, withDeleted bool, fn func(*Post) error) (*Post, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	p, err := s.Repo.GetById(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsDeleted && !withDeleted {
		return nil, common.NotFound("post not found")
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) notify(ctx context.Context, n *notification.Notification) {
	if n.UserId == "" || n.UserId == n.ActorId {
		return
	}
	if err := s.Notifier.Notify(ctx, n); err != nil {
		logger.Log(ctx).Errorf("can't notify user %s about %s: %v", n.UserId, n.Kind, err)
	}
}

func (s *Service) addActivity(ctx context.Context, userId string, points int) {
	if err := s.Users.AddActivity(ctx, userId, points); err != nil {
		logger.Log(ctx).Errorf("can't add activity to user %s: %v", userId, err)
	}
}

func actor(u *user.User, anonymous bool) (id, name string) {
	if anonymous {
		return "", comment.AnonymousName
	}
	return u.Id, u.Username
}

func (s *Service) CreatePost(ctx context.Context, u *user.User, req NewPostRequest) (*Post, error) {
	if err := s.checkActive(ctx, u); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := &Post{
		Id:        PostId(common.NewId()),
		UserId:    u.Id,
		Username:  u.Username,
		Anonymous: req.Anonymous,
		Content:   req.Content,
		Images:    req.Images,
		LikedBy:   likesOf(nil),
		Comments:  []*comment.Comment{},
		Created:   s.now(),
	}
	if req.Anonymous {
		p.Username = comment.AnonymousName
	}
	if p.Images == nil {
		p.Images = []Image{}
	}

	if _, err := s.Repo.Add(ctx, p); err != nil {
		return nil, err
	}
	s.addActivity(ctx, u.Id, user.ActivityPost)
	return p, nil
}

func (s *Service) ListPosts(ctx context.Context) ([]*Post, error) {
	return s.Repo.GetAll(ctx, false)
}

func (s *Service) UserPosts(ctx context.Context, userId string) ([]*Post, error) {
	return s.Repo.GetUserPosts(ctx, userId)
}

// GetPost returns a live post and counts the view.
// The view is counted under the post's lock since mutate writes the whole document back.
func (s *Service) GetPost(ctx context.Context, id PostId) (*Post, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	p, err := s.Repo.GetById(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsDeleted {
		return nil, common.NotFound("post not found")
	}
	if err := s.Repo.IncViews(ctx, id); err != nil {
		logger.Log(ctx).Errorf("can't count a view of post %s: %v", id, err)
	} else {
		p.ViewCount++
	}
	return p, nil
}

// DeletePost soft-deletes the post. Only its owner may do that.
func (s *Service) DeletePost(ctx context.Context, u *user.User, id PostId) error {
	_, err := s.mutate(ctx, id, false, func(p *Post) error {
		if u == nil || p.UserId != u.Id {
			return common.Forbidden("only the owner can delete the post")
		}
		now := s.now()
		p.IsDeleted = true
		p.DeletedAt = &now
		p.DeletedBy = u.Id
		return nil
	})
	return err
}

// HardDelete removes the post with everything under it.
func (s *Service) HardDelete(ctx context.Context, id PostId) error {
	unlock := s.locks.lock(id)
	defer unlock()

	if _, err := s.Repo.GetById(ctx, id); err != nil {
		return err
	}
	return s.Repo.Delete(ctx, id)
}

func (s *Service) Like(ctx context.Context, u *user.User, id PostId) (*Post, error) {
	if err := s.checkActive(ctx, u); err != nil {
		return nil, err
	}
	added := false
	p, err := s.mutate(ctx, id, false, func(p *Post) error {
		p.LikedBy = likesOf(p.LikedBy)
		added = p.LikedBy.Add(u.Id)
		p.Likes = len(p.LikedBy)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if added {
		s.addActivity(ctx, u.Id, user.ActivityLike)
		s.notify(ctx, &notification.Notification{
			UserId:    p.UserId,
			Kind:      notification.KindLike,
			ActorId:   u.Id,
			ActorName: u.Username,
			PostId:    string(p.Id),
			Snippet:   notification.Snippet(p.Content),
		})
	}
	return p, nil
}

func (s *Service) Unlike(ctx context.Context, u *user.User, id PostId) (*Post, error) {
	if err := s.checkActive(ctx, u); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, false, func(p *Post) error {
		p.LikedBy = likesOf(p.LikedBy)
		p.LikedBy.Remove(u.Id)
		p.Likes = len(p.LikedBy)
		return nil
	})
}

// AddComment puts a new top-level comment at the front of the post's comments.
func (s *Service) AddComment(ctx context.Context, u *user.User, postId PostId, req CommentRequest) (*comment.Comment, error) {
	if err := s.checkActive(ctx, u); err != nil {
		return nil, err
	}
	if err := checkIdentity(u, req.UserId); err != nil {
		return nil, err
	}

	author := comment.Author{UserId: u.Id, Username: u.Username}
	var created *comment.Comment
	p, err := s.mutate(ctx, postId, false, func(p *Post) error {
		c, err := comment.NewComment(author, req.Content, req.Anonymous, s.now())
		if err != nil {
			return err
		}
		p.Comments = comment.Prepend(p.Comments, c)
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.addActivity(ctx, u.Id, user.ActivityComment)
	actorId, actorName := actor(u, req.Anonymous)
	if p.UserId != u.Id {
		s.notify(ctx, &notification.Notification{
			UserId:    p.UserId,
			Kind:      notification.KindComment,
			ActorId:   actorId,
			ActorName: actorName,
			PostId:    string(p.Id),
			CommentId: string(created.Id),
			Snippet:   notification.Snippet(created.Content),
		})
	}
	return created, nil
}

// ReplyComment attaches a reply under the comment, or under req.ReplyToId at any depth.
// The author of the node replied to is notified.
func (s *Service) ReplyComment(ctx context.Context, u *user.User, postId PostId, commentId comment.CommentId, req ReplyRequest) (*comment.Reply, error) {
	if err := s.checkActive(ctx, u); err != nil {
		return nil, err
	}
	if err := checkIdentity(u, req.UserId); err != nil {
		return nil, err
	}

	author := comment.Author{UserId: u.Id, Username: u.Username}
	var (
		created   *comment.Reply
		recipient string
	)
	p, err := s.mutate(ctx, postId, false, func(p *Post) error {
		_, c := comment.FindComment(p.Comments, commentId)
		if c == nil {
			return common.NotFound("comment not found")
		}
		r, err := comment.NewReply(author, req.Content, req.Anonymous, req.ReplyToId, s.now())
		if err != nil {
			return err
		}
		recipient, err = comment.InsertReply(c, req.ReplyToId, r, s.Limits)
		if err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.addActivity(ctx, u.Id, user.ActivityReply)
	actorId, actorName := actor(u, req.Anonymous)
	if recipient != u.Id {
		s.notify(ctx, &notification.Notification{
			UserId:    recipient,
			Kind:      notification.KindReply,
			ActorId:   actorId,
			ActorName: actorName,
			PostId:    string(p.Id),
			CommentId: string(commentId),
			ReplyId:   string(created.Id),
			Snippet:   notification.Snippet(created.Content),
		})
	}
	return created, nil
}

// DeleteComment removes a comment, one of its replies, or a reply nested one level below that.
func (s *Service) DeleteComment(ctx context.Context, u *user.User, postId PostId, req comment.DeleteRequest) error {
	if u == nil {
		return common.Forbidden("not authorized")
	}
	req.RequesterId = u.Id
	_, err := s.mutate(ctx, postId, req.Moderator, func(p *Post) error {
		comments, err := comment.DeleteNode(p.Comments, p.UserId, req)
		if err != nil {
			return err
		}
		p.Comments = comments
		return nil
	})
	return err
}

// DeleteReply removes a reply at any depth together with its subtree.
func (s *Service) DeleteReply(ctx context.Context, u *user.User, postId PostId, commentId comment.CommentId, replyId comment.ReplyId, moderator bool) error {
	if u == nil {
		return common.Forbidden("not authorized")
	}
	req := comment.DeleteRequest{CommentId: commentId, ReplyId: replyId, RequesterId: u.Id, Moderator: moderator}
	_, err := s.mutate(ctx, postId, moderator, func(p *Post) error {
		_, c := comment.FindComment(p.Comments, commentId)
		if c == nil {
			return common.NotFound("comment not found")
		}
		_, err := comment.DeleteReply(c, replyId, p.UserId, req)
		return err
	})
	return err
}

func (s *Service) AllPosts(ctx context.Context) ([]*Post, error) {
	return s.Repo.GetAll(ctx, true)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	st := new(Stats)
	var err error
	if st.Posts, err = s.Repo.Count(ctx, false); err != nil {
		return nil, err
	}
	if st.DeletedPosts, err = s.Repo.Count(ctx, true); err != nil {
		return nil, err
	}
	posts, err := s.Repo.GetAll(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		for _, c := range p.Comments {
			if c == nil {
				continue
			}
			st.Comments++
			st.Replies += comment.Count(c.Replies)
		}
	}
	return st, nil
}

// checkIdentity rejects bodies that claim to be written by someone other than the session user.
func checkIdentity(u *user.User, claimed string) error {
	if claimed != "" && claimed != u.Id {
		return common.Forbidden("userId does not match the session")
	}
	return nil
}
