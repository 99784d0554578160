package user

import (
	"net/http"
	"time"

	"ChatWave/logger"
	mwsec "ChatWave/middleware/security"
	"ChatWave/module/chat/model"
	"ChatWave/module/chat/store"
	"ChatWave/service/gateway"
	"ChatWave/service/storage"
	"ChatWave/tools/errs"
	"ChatWave/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes the HTTP session endpoints: issuing tokens and revoking
// them. Revocation is the bridge into the gateway: invalidating the durable
// session must also drop the live connection carrying that token.
type Handler struct {
	jwt    security.Options
	stores store.Stores
	gw     *gateway.Server
}

func NewHandler(jwt security.Options, stores store.Stores, gw *gateway.Server) *Handler {
	return &Handler{jwt: jwt, stores: stores, gw: gw}
}

type loginRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	DeviceType string `json:"device_type"`
}

// Login issues a token for a known user and records the session keyed by
// token hash. There is no password flow here; upstream auth is assumed.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail("user_id is required"))
		return
	}

	u, err := h.stores.Users.Find(c.Request.Context(), req.UserID)
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			c.JSON(http.StatusNotFound, errs.ErrRecordNotFound)
			return
		}
		logger.Errorf("login: find user %s: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer)
		return
	}

	token, tokenHash, expireAt, err := security.Generate(h.jwt, u.UserID, nil)
	if err != nil {
		logger.Errorf("login: sign token for %s: %v", u.UserID, err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer)
		return
	}

	now := time.Now()
	sess := &model.UserSession{
		SessionID:       uuid.NewString(),
		UserID:          u.UserID,
		DeviceType:      req.DeviceType,
		IP:              c.ClientIP(),
		UserAgent:       c.Request.UserAgent(),
		AccessTokenHash: tokenHash,
		IsValid:         true,
		Status:          model.SessionStatusOnline,
		LoginTime:       now,
		LastActive:      now,
		ExpireAt:        expireAt,
		CreateTime:      now,
		UpdateTime:      now,
	}
	if err := h.stores.Sessions.Insert(c.Request.Context(), sess); err != nil {
		logger.Errorf("login: store session for %s: %v", u.UserID, err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expire_at":  expireAt,
		"session_id": sess.SessionID,
		"user": gin.H{
			"user_id":  u.UserID,
			"username": u.Username,
			"avatar":   u.Avatar,
		},
	})
}

// Status reports a user's presence over HTTP. The Redis mirror is consulted
// first so other processes see liveness without a gateway round trip; the
// durable record is the fallback.
func (h *Handler) Status(c *gin.Context) {
	userID := c.Param("id")
	u, err := h.stores.Users.Find(c.Request.Context(), userID)
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			c.JSON(http.StatusNotFound, errs.ErrRecordNotFound)
			return
		}
		logger.Errorf("status: find user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer)
		return
	}

	status := u.Status
	lastConnection := u.LastConnection
	if _, online, perr := storage.PresenceLookup(c.Request.Context(), userID); perr == nil {
		if online {
			status = model.UserStatusOnline
		} else {
			status = model.UserStatusOffline
			if seen, serr := storage.LastSeen(c.Request.Context(), userID); serr == nil && !seen.IsZero() {
				lastConnection = &seen
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":         userID,
		"status":         status,
		"lastConnection": lastConnection,
	})
}

type revokeRequest struct {
	Token  string `json:"token"`
	Reason string `json:"reason"`
}

// Revoke invalidates the durable session behind a token and kicks the live
// connection, if one is registered. Callers revoke their own token by
// default; passing another token requires it to belong to the same user.
func (h *Handler) Revoke(c *gin.Context) {
	var req revokeRequest
	_ = c.ShouldBindJSON(&req)

	target := req.Token
	if target == "" {
		target = mwsec.Token(c)
	}
	if target == "" {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail("token is required"))
		return
	}

	sess, err := h.stores.Sessions.FindByTokenHash(c.Request.Context(), security.HashToken(target))
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			c.JSON(http.StatusNotFound, errs.ErrRecordNotFound)
			return
		}
		logger.Errorf("revoke: lookup session: %v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer)
		return
	}
	if sess.UserID != mwsec.UserID(c) {
		c.JSON(http.StatusForbidden, errs.ErrNoPermission)
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "revoked by user"
	}
	if err := h.stores.Sessions.Invalidate(c.Request.Context(), sess.SessionID, model.SessionStatusKicked, reason, time.Now()); err != nil {
		logger.Errorf("revoke: invalidate session %s: %v", sess.SessionID, err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer)
		return
	}

	kicked := h.gw.DisconnectByToken(target)
	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.SessionID,
		"kicked":     kicked,
	})
}
