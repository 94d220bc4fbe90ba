package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/user"
)

type (
	UserRepo interface {
		UserExists(string) bool
		GetByUsernameAndPass(string, string) (*user.User, error)
		Add(*user.User) (string, error)
		GetById(context.Context, string) (*user.User, error)
	}

	SessionManager interface {
		CreateToken(*user.User) (string, error)
		CleanupUserSessions(userId string) error
	}

	UserHandler struct {
		Repo           UserRepo
		SessionManager SessionManager
	}

	HttpUser struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
)

func NewUserHandler(r UserRepo, sm SessionManager) *UserHandler {
	return &UserHandler{
		Repo:           r,
		SessionManager: sm,
	}
}

func (uh UserHandler) LogIn(w http.ResponseWriter, r *http.Request) {
	httpUser := new(HttpUser)
	err := common.ParseReqBody(r.Body, httpUser)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't parse request body as user: %v", err)
		common.WriteMsg(w, "bad request format", http.StatusBadRequest)
		return
	}

	user, err := uh.Repo.GetByUsernameAndPass(httpUser.Username, httpUser.Password)
	if err != nil {
		logger.Log(r.Context()).Infof("can't get the user by username `%s` and password: %v",
			httpUser.Username, err)
		common.WriteMsg(w, "user not found", http.StatusNotFound)
		return
	}
	if user.Banned {
		common.WriteMsg(w, "user is banned", http.StatusForbidden)
		return
	}

	// Remove expired user session if there are any
	if err := uh.SessionManager.CleanupUserSessions(user.Id); err != nil {
		logger.Log(r.Context()).Errorf("user/handlers: can't cleanup sessions for user `%s`, %v", httpUser.Username, err)
		common.WriteMsg(w, "failed managing user sessions", http.StatusInternalServerError)
		return
	}

	uh.sendToken(r.Context(), w, http.StatusOK, user)
}

func (uh UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	httpUser := new(HttpUser)
	err := common.ParseReqBody(r.Body, httpUser)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't parse request body as user: %v", err)
		common.WriteMsg(w, "bad request format", http.StatusBadRequest)
		return
	}

	httpUser.Username = strings.TrimSpace(httpUser.Username)
	if httpUser.Username == "" || httpUser.Password == "" {
		common.WriteErr(w, common.Invalid("username and password are required"))
		return
	}

	if uh.Repo.UserExists(httpUser.Username) {
		err := common.Conflict(`user "%s" already exists`, httpUser.Username)
		logger.Log(r.Context()).Info(err)
		common.WriteErr(w, err)
		return
	}

	salt := common.RandStringRunes(8)
	pass := common.HashPass(httpUser.Password, salt)
	newUser := &user.User{
		Username: httpUser.Username,
		Password: pass,
		Role:     user.RoleUser,
		// Id is handled below
	}
	id, err := uh.Repo.Add(newUser)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't add user `%s`: %v", httpUser.Username, err)
		common.WriteMsg(w, "can't add user", http.StatusInternalServerError)
		return
	}
	newUser.Id = id

	uh.sendToken(r.Context(), w, http.StatusCreated, newUser)
}

// Profile shows the public part of a user with their level.
func (uh UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userId := mux.Vars(r)["user_id"]

	u, err := uh.Repo.GetById(r.Context(), userId)
	if err != nil {
		logger.Log(r.Context()).Infof("can't load user %s: %v", userId, err)
		common.WriteErr(w, err)
		return
	}

	common.WriteOK(w, http.StatusOK, "user", u.Profile())
}

func (uh *UserHandler) sendToken(ctx context.Context, w http.ResponseWriter, code int, user *user.User) {
	token, err := uh.SessionManager.CreateToken(user)
	if err != nil {
		logger.Log(ctx).Errorf("can't create JWT token from user: %v", err)
		common.WriteMsg(w, "user authentication failed", http.StatusInternalServerError)
		return
	}

	common.WriteOK(w, code, "token", token)
}
