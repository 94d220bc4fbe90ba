package notification

import (
	"context"
	"net/http"

	"forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/sessions"
)

type IInbox interface {
	List(ctx context.Context, userId string) ([]*Notification, int, error)
	MarkAllRead(ctx context.Context, userId string) error
}

type Handler struct {
	Inbox IInbox
}

func NewHandler(inbox IInbox) *Handler {
	return &Handler{Inbox: inbox}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		common.WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	items, unread, err := h.Inbox.List(r.Context(), u.Id)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't load notifications for user %s: %v", u.Id, err)
		common.WriteErr(w, err)
		return
	}

	common.WriteRespJSON(w, struct {
		Success       bool            `json:"success"`
		Notifications []*Notification `json:"notifications"`
		Unread        int             `json:"unread"`
	}{true, items, unread})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		common.WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	if err := h.Inbox.MarkAllRead(r.Context(), u.Id); err != nil {
		logger.Log(r.Context()).Errorf("can't mark notifications read for user %s: %v", u.Id, err)
		common.WriteErr(w, err)
		return
	}
	common.WriteOK(w, http.StatusOK, "", nil)
}
