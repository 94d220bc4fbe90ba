package sessions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	. "forum/pkg/common"
	"forum/pkg/user"
)

const (
	redisNS    = "forumSessions:"
	sessionTTL = 90 * 24 * time.Hour
)

type (
	sessionKey string

	// RedisPool is the part of *redis.Pool the manager needs.
	RedisPool interface {
		Get() redis.Conn
	}

	SessionManager struct {
		secret []byte
		pool   RedisPool
	}

	jwtClaims struct {
		User user.UserFromToken `json:"user"`
		jwt.StandardClaims
	}
)

const SessionKey sessionKey = "authenticatedUser"

var ErrNoAuth = errors.New("sessions: no session found")

func NewSessionManager(secret string, pool RedisPool) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		pool:   pool,
	}
}

// Returns logged in user if the user from JWT token is valid
// and the session is valid.
func (sm *SessionManager) UserFromToken(authHeader string) (*user.User, error) {
	if authHeader == "" {
		return nil, errors.New("sessions: auth header not found")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	token, err := jwt.ParseWithClaims(tokenString, &jwtClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("sessions: unexpected signing method %v", token.Header["alg"])
			}
			return sm.secret, nil
		})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok {
		return nil, errors.New("sessions: can't cast token to claim")
	}
	if !token.Valid {
		return nil, errors.New("sessions: token is not valid")
	}

	_, redisErr := sm.CheckRedis(claims.User.Id, claims.Id)
	if redisErr != nil {
		return nil, fmt.Errorf("sessions/manager: Redis session is not valid: %w", redisErr)
	}

	return &user.User{
		Id:       claims.User.Id,
		Username: claims.User.Username,
		Role:     claims.User.Role,
	}, nil
}

// Goes through all user sessions and removes expired ones.
func (sm *SessionManager) CleanupUserSessions(userId string) error {
	conn := sm.pool.Get()
	defer conn.Close()

	sessions, err := redis.StringMap(conn.Do("HGETALL", redisNS+userId))
	if err != nil {
		return fmt.Errorf("sessions/manager: can't HGETALL user sessions from Redis: %w", err)
	}

	nowTs := time.Now().Unix()
	for sessId, exp := range sessions {
		expTs, _ := strconv.ParseInt(exp, 10, 64)
		if nowTs > expTs {
			if _, err := conn.Do("HDEL", redisNS+userId, sessId); err != nil {
				return fmt.Errorf("sessions/manager: can't HDEL session: %w", err)
			}
			zap.S().Infof("sessions/manager: session %s removed (expired at %s)", sessId, exp)
		}
	}

	return nil
}

// RevokeUserSessions drops every session of the user; used when the user gets banned.
func (sm *SessionManager) RevokeUserSessions(userId string) error {
	conn := sm.pool.Get()
	defer conn.Close()

	if _, err := conn.Do("DEL", redisNS+userId); err != nil {
		return fmt.Errorf("sessions/manager: failed DEL user sessions: %w", err)
	}
	return nil
}

func (sm *SessionManager) CheckRedis(userId, sessionId string) (bool, error) {
	conn := sm.pool.Get()
	defer conn.Close()

	expirationData, err := redis.Bytes(conn.Do("HGET", redisNS+userId, sessionId))
	if err != nil {
		return false, fmt.Errorf("sessions/manager: can't HGET from Redis: %w", err)
	}

	// Check user session for expiration
	expiredTs, _ := strconv.ParseInt(string(expirationData), 10, 64)
	nowTs := time.Now().Unix()
	if nowTs > expiredTs {
		return false, errors.New("session has been expired")
	}

	// Prolongate session expiration time if it expires in less than 24 hours
	// because we don't want to kick off the active user.
	if expiredTs-nowTs < int64((24 * time.Hour).Seconds()) {
		newExpDate := time.Now().Add(sessionTTL).Unix()
		if err := sm.AddToRedis(userId, sessionId, newExpDate); err != nil {
			return false, err
		}
	}

	return true, nil
}

func (sm *SessionManager) AddToRedis(userId, sessionId string, exp int64) error {
	conn := sm.pool.Get()
	defer conn.Close()

	_, err := conn.Do("HSET", redisNS+userId, sessionId, exp)
	if err != nil {
		return fmt.Errorf("sessions/manager: failed HSET to Redis: %w", err)
	}
	return nil
}

func (sm *SessionManager) CreateToken(u *user.User) (string, error) {
	sessionID := RandStringRunes(10)
	data := jwtClaims{
		User: user.UserFromToken{Id: u.Id, Username: u.Username, Role: u.Role},
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(sessionTTL).Unix(),
			IssuedAt:  time.Now().Unix(),
			Id:        sessionID,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, data).SignedString(sm.secret)
	if err != nil {
		return "", err
	}

	if err := sm.AddToRedis(u.Id, sessionID, data.ExpiresAt); err != nil {
		return ``, err
	}

	return token, nil
}

func WithAuthUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, SessionKey, u)
}

func GetAuthUser(ctx context.Context) (*user.User, error) {
	user, ok := ctx.Value(SessionKey).(*user.User)
	if !ok || user == nil {
		return nil, ErrNoAuth
	}
	return user, nil
}
