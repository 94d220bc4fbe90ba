package main

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/jaswdr/faker"

	"forum/pkg/comment"
	. "forum/pkg/common"
	"forum/pkg/post"
	"forum/pkg/user"
)

var (
	f             = faker.New()
	onePassForAll = HashPass("sdfsdfsdf", RandStringRunes(8)) // salt must have len of 8
)

type IUserRepo interface {
	Add(*user.User) (string, error)
	GetAll() ([]*user.User, error)
}

type IForum interface {
	CreatePost(ctx context.Context, u *user.User, req post.NewPostRequest) (*post.Post, error)
	AddComment(ctx context.Context, u *user.User, postId post.PostId, req post.CommentRequest) (*comment.Comment, error)
	ReplyComment(ctx context.Context, u *user.User, postId post.PostId, commentId comment.CommentId, req post.ReplyRequest) (*comment.Reply, error)
}

func createAuthors(userRepo IUserRepo) error {
	// Users for experiments (not random)
	fixed := []*user.User{
		{Username: "pike", Password: onePassForAll, Role: user.RoleUser},
		{Username: "admin", Password: onePassForAll, Role: user.RoleAdmin},
	}
	for _, u := range fixed {
		if _, err := userRepo.Add(u); err != nil {
			return fmt.Errorf("seed: can't create default user %s: %w", u.Username, err)
		}
	}
	for i := 1; i <= 5; i++ {
		if err := genUser(userRepo); err != nil {
			return err
		}
	}
	return nil
}

// seed fills an empty forum with users, posts and reply threads a few levels deep.
func seed(ctx context.Context, userRepo IUserRepo, forum IForum) error {
	authors, err := userRepo.GetAll()
	if err != nil {
		return fmt.Errorf("seed: can't get all authors: %w", err)
	}
	if len(authors) > 0 {
		return nil
	}

	if err := createAuthors(userRepo); err != nil {
		return err
	}
	if authors, err = userRepo.GetAll(); err != nil {
		return fmt.Errorf("seed: can't get all authors: %w", err)
	}

	for i := 0; i <= 5; i++ {
		p, err := forum.CreatePost(ctx, randUser(authors), genPost())
		if err != nil {
			return fmt.Errorf("seed: can't add post: %w", err)
		}
		if err := genThreads(ctx, forum, authors, p.Id); err != nil {
			return err
		}
	}
	return nil
}

func genUser(userRepo IUserRepo) error {
	u := user.User{
		Username: strings.ToLower(f.Person().FirstName()) + RandStringRunes(3),
		Password: onePassForAll,
		Role:     user.RoleUser,
	}
	if _, err := userRepo.Add(&u); err != nil {
		return fmt.Errorf("seed: can't add user: %w", err)
	}
	return nil
}

func genThreads(ctx context.Context, forum IForum, users []*user.User, postId post.PostId) error {
	for n := rand.Intn(4); n >= 0; n-- {
		c, err := forum.AddComment(ctx, randUser(users), postId, post.CommentRequest{
			Content:   f.Lorem().Sentence(rand.Intn(10) + 3),
			Anonymous: rand.Intn(6) == 0,
		})
		if err != nil {
			return fmt.Errorf("seed: can't add comment: %w", err)
		}

		// a chain: each reply answers the previous one
		replyTo := comment.ReplyId("")
		for d := rand.Intn(5); d > 0; d-- {
			r, err := forum.ReplyComment(ctx, randUser(users), postId, c.Id, post.ReplyRequest{
				CommentRequest: post.CommentRequest{Content: f.Lorem().Sentence(rand.Intn(8) + 2)},
				ReplyToId:      replyTo,
			})
			if err != nil {
				return fmt.Errorf("seed: can't add reply: %w", err)
			}
			replyTo = r.Id
		}
	}
	return nil
}

func genText() string {
	return f.Lorem().Paragraph(rand.Intn(3) + 2)
}

func genPost() post.NewPostRequest {
	req := post.NewPostRequest{
		Content:   genText(),
		Anonymous: rand.Intn(5) == 0,
	}
	if rand.Intn(3) == 0 {
		req.Images = []post.Image{{URL: f.Internet().URL(), OriginalFilename: f.Lorem().Word() + ".jpg"}}
	}
	return req
}

func randUser(users []*user.User) *user.User {
	idx := rand.Intn(len(users))
	return users[idx]
}
