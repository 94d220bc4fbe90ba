package post

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"forum/pkg/common"
)

type Repo struct {
	posts IMongoCollection
}

func NewPostRepo(postsCol *mongo.Collection) *Repo {
	posts := &MongoCollection{
		Coll: postsCol,
	}
	return &Repo{
		posts: posts,
	}
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created", Value: -1}})
}

func (r *Repo) Add(ctx context.Context, p *Post) (PostId, error) {
	_, err := r.posts.InsertOne(ctx, p)
	if err != nil {
		return PostId(``), fmt.Errorf("post/repo: failed inserting a post: %w", err)
	}
	return p.Id, nil
}

// Update overwrites the stored document with p, comment tree included.
func (r *Repo) Update(ctx context.Context, p *Post) error {
	_, err := r.posts.UpdateOne(ctx, bson.M{"id": p.Id}, bson.M{"$set": p})
	if err != nil {
		return fmt.Errorf("post/repo: failed updating post: %w", err)
	}
	return nil
}

func (r *Repo) IncViews(ctx context.Context, id PostId) error {
	update := bson.M{"$inc": bson.M{"viewCount": 1}}
	_, err := r.posts.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("post/repo: failed counting a view: %w", err)
	}
	return nil
}

// Delete removes the document for good. Owners soft-delete through Update.
func (r *Repo) Delete(ctx context.Context, id PostId) error {
	_, err := r.posts.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("post/repo: failed deleting post: %w", err)
	}
	return nil
}

// GetById returns the post even when it is soft-deleted.
func (r *Repo) GetById(ctx context.Context, id PostId) (*Post, error) {
	post := new(Post)
	err := r.posts.FindOne(ctx, bson.M{"id": id}).Decode(post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.NotFound("post not found")
	}
	if err != nil {
		return nil, fmt.Errorf("post/repo: failed finding post %s: %w", id, err)
	}
	return post, nil
}

func (r *Repo) GetAll(ctx context.Context, withDeleted bool) ([]*Post, error) {
	filter := bson.M{}
	if !withDeleted {
		filter["isDeleted"] = false
	}
	return r.find(ctx, filter)
}

// GetUserPosts lists what the user published under their own name.
func (r *Repo) GetUserPosts(ctx context.Context, userId string) ([]*Post, error) {
	filter := bson.M{"userId": userId, "anonymous": false, "isDeleted": false}
	return r.find(ctx, filter)
}

func (r *Repo) Count(ctx context.Context, deleted bool) (int64, error) {
	n, err := r.posts.CountDocuments(ctx, bson.M{"isDeleted": deleted})
	if err != nil {
		return 0, fmt.Errorf("post/repo: failed counting posts: %w", err)
	}
	return n, nil
}

func (r *Repo) find(ctx context.Context, filter bson.M) ([]*Post, error) {
	cursor, err := r.posts.Find(ctx, filter, newestFirst())
	if err != nil {
		return nil, fmt.Errorf("post/repo: failed finding posts: %w", err)
	}
	defer cursor.Close(ctx)

	posts := []*Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("post/repo: failed geting posts from cursor: %w", err)
	}
	return posts, nil
}
