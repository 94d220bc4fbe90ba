package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"forum/pkg/admin"
	"forum/pkg/comment"
	"forum/pkg/config"
	"forum/pkg/logger"
	"forum/pkg/middleware"
	"forum/pkg/notification"
	"forum/pkg/post"
	"forum/pkg/sessions"
	"forum/pkg/user"
	"forum/pkg/user/api"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalln("main:", err)
	}
	l := logger.Run(cfg.LogLevel)
	defer l.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("pgx", cfg.PostgresDSN)
	if err != nil {
		l.Fatalf("main: unable to open PostgreSQL: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		l.Fatalf("main: unable to reach PostgreSQL: %v", err)
	}

	redisPool := &redis.Pool{
		MaxIdle:     10,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.DialURL(cfg.RedisAddr)
		},
	}
	defer redisPool.Close()
	pingConn := redisPool.Get()
	if _, err := pingConn.Do("PING"); err != nil {
		l.Fatalf("main: can't connect to Redis: %v", err)
	}
	pingConn.Close()

	mongoCtx, mongoCtxCancel := context.WithTimeout(ctx, 3*time.Second)
	defer mongoCtxCancel()
	mongoClient, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		l.Fatalf("main: can't connect to MongoDB: %v", err)
	}
	if err := mongoClient.Ping(mongoCtx, nil); err != nil {
		l.Fatalf("main: unable to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			l.Errorf("main: failed disconnecting from MongoDB: %v", err)
		}
	}()

	usersRepo := user.NewUserRepo(db)
	if err := usersRepo.Migrate(ctx); err != nil {
		l.Fatalf("main: %v", err)
	}
	postsRepo := post.NewPostRepo(mongoClient.Database(cfg.MongoDB).Collection("posts"))
	inbox := notification.NewRepo(redisPool, cfg.NotificationsKeep)
	sessionManager := sessions.NewSessionManager(cfg.SecretKey, redisPool)

	limits := comment.Limits{MaxDepth: cfg.MaxReplyDepth, MaxReplies: cfg.MaxRepliesPerComment}
	forum := post.NewService(postsRepo, inbox, usersRepo, limits)

	if cfg.SeedFakeData {
		// Generate fake content to have better UI experience
		if err := seed(ctx, usersRepo, forum); err != nil {
			l.Errorf("main: seeding failed: %v", err)
		}
	}

	postHandler := post.NewPostHandler(forum)
	userHandler := api.NewUserHandler(usersRepo, sessionManager)
	notificationHandler := notification.NewHandler(inbox)
	adminHandler := admin.NewHandler(forum, usersRepo, sessionManager)

	r := mux.NewRouter()

	logMiddleware := middleware.NewLoggingMiddleware(l)
	r.Use(logMiddleware.SetupTracing)
	r.Use(logMiddleware.SetupLogging)
	r.Use(logMiddleware.AccessLog)

	auth := middleware.NewAuthMiddleware(sessionManager, usersRepo)
	r.Use(auth.Middleware)

	routes(r, postHandler, userHandler, notificationHandler, adminHandler)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Errorf("main: shutdown failed: %v", err)
		}
	}()

	l.Infof("serving at %s", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Fatalf("main: %v", err)
	}
}

func routes(r *mux.Router, postHandler *post.PostHandler, userHandler *api.UserHandler,
	notificationHandler *notification.Handler, adminHandler *admin.Handler) {
	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(h)
	}

	apiRouter := r.PathPrefix("/api").Subrouter()

	// User
	apiRouter.HandleFunc("/register", userHandler.Register).Methods("POST")
	apiRouter.HandleFunc("/login", userHandler.LogIn).Methods("POST")
	apiRouter.HandleFunc("/users/{user_id}", userHandler.Profile).Methods("GET")
	apiRouter.HandleFunc("/users/{user_id}/posts", postHandler.GetByUser).Methods("GET")

	// Posts
	apiRouter.HandleFunc("/posts", postHandler.List).Methods("GET")
	apiRouter.Handle("/posts", authed(postHandler.Add)).Methods("POST")
	apiRouter.HandleFunc("/posts/{post_id}", postHandler.Get).Methods("GET")
	apiRouter.Handle("/posts/{post_id}", authed(postHandler.Delete)).Methods("DELETE")
	apiRouter.Handle("/posts/{post_id}/like", authed(postHandler.Like)).Methods("POST")
	apiRouter.Handle("/posts/{post_id}/like", authed(postHandler.Unlike)).Methods("DELETE")

	// Comments
	apiRouter.Handle("/posts/{post_id}/comments", authed(postHandler.AddComment)).Methods("POST")
	apiRouter.Handle("/posts/{post_id}/comments/{comment_id}", authed(postHandler.DeleteComment)).Methods("DELETE")
	apiRouter.Handle("/posts/{post_id}/comments/{comment_id}/replies", authed(postHandler.ReplyComment)).Methods("POST")
	apiRouter.Handle("/posts/{post_id}/comments/{comment_id}/replies/{reply_id}", authed(postHandler.DeleteReply)).Methods("DELETE")

	// Notifications
	apiRouter.Handle("/notifications", authed(notificationHandler.List)).Methods("GET")
	apiRouter.Handle("/notifications/read", authed(notificationHandler.MarkRead)).Methods("POST")

	// Admin panel
	adm := apiRouter.PathPrefix("/admin").Subrouter()
	adm.Use(middleware.RequireAdmin)
	adm.HandleFunc("/stats", adminHandler.Stats).Methods("GET")
	adm.HandleFunc("/posts", adminHandler.AllPosts).Methods("GET")
	adm.HandleFunc("/posts/{post_id}", adminHandler.DeletePost).Methods("DELETE")
	adm.HandleFunc("/posts/{post_id}/comments/{comment_id}", adminHandler.DeleteComment).Methods("DELETE")
	adm.HandleFunc("/users/{user_id}/ban", adminHandler.Ban).Methods("POST")
	adm.HandleFunc("/users/{user_id}/unban", adminHandler.Unban).Methods("POST")
}
