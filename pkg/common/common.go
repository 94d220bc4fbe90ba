package common

import (
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
)

type Msg struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// WriteMsg writes the uniform `{success, message}` payload.
// Any 2xx code is reported as success.
func WriteMsg(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, Msg{Success: code >= 200 && code < 300, Message: msg})
}

// WriteOK writes `{success: true, <key>: data}` with the given status.
func WriteOK(w http.ResponseWriter, code int, key string, data interface{}) {
	if key == "" {
		writeJSON(w, code, Msg{Success: true})
		return
	}
	writeJSON(w, code, map[string]interface{}{
		"success": true,
		key:       data,
	})
}

var letterRunes = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

func RandStringRunes(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letterRunes[rand.Intn(len(letterRunes))]
	}
	return string(b)
}

// NewId returns a fresh opaque identifier for posts, comments, replies and notifications.
func NewId() string {
	return uuid.NewString()
}

func HashPass(plainPassword, salt string) []byte {
	hashedPass := argon2.IDKey([]byte(plainPassword), []byte(salt), 1, 64*1024, 4, 32)
	res := []byte(salt)
	return append(res, hashedPass...)
}

// ParseReqBody decodes a JSON body into ptr. An empty body leaves ptr untouched.
func ParseReqBody(body io.Reader, ptr interface{}) error {
	if body == nil {
		return nil
	}
	err := json.NewDecoder(body).Decode(ptr)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func WriteRespJSON(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, data)
}

// writeJSON marshals data before touching the header, so a marshaling failure still gets a 500.
func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	resp, err := json.Marshal(data)
	if err != nil {
		zap.S().Errorf("common: JSON marshaling failed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"response failed"}`))
		return
	}

	w.WriteHeader(code)
	if _, err = w.Write(resp); err != nil {
		zap.S().Errorf("common: failed writing response: %v", err)
	}
}
