package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"ChatWave/global"
	"ChatWave/logger"
	midsec "ChatWave/middleware/security"
	"ChatWave/module/chat/store"
	"ChatWave/module/user"
	"ChatWave/service/gateway"
	"ChatWave/service/mgo"
	"ChatWave/tools/security"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := global.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	global.ConfigIds(cfg)

	ctx := context.Background()
	if err := global.ConfigMgo(ctx, cfg); err != nil {
		log.Fatalf("mongo not ready: %v", err)
	}
	stores := store.NewMongoStores(mgo.GetDB())

	jwtOpts := security.Options{
		Secret: cfg.JwtSecret(),
		Alg:    cfg.Jwt.Alg,
		TTL:    time.Duration(cfg.Jwt.TTLMin) * time.Minute,
	}

	gw := gateway.NewServer(cfg.Server.GatewayID, gateway.Options{
		JWT:         jwtOpts,
		Typing:      gateway.TypingConf{Expiry: cfg.TypingExpiry()},
		SendQueue:   cfg.Gateway.SendQueueSize,
		PresenceTTL: cfg.PresenceTTL(),
	}, stores)

	// redis is optional: without it the gateway still runs, just without the
	// cross-process presence keys
	if err := global.ConfigRedis(cfg); err != nil {
		logger.Warnf("redis unavailable, presence mirror disabled: %v", err)
	} else {
		gw.EnablePresenceMirror()
	}

	sessions := user.NewHandler(jwtOpts, stores, gw)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ws", gw.HandleWS) // ws://host/ws?token=...

	r.POST("/api/login", sessions.Login)
	auth := r.Group("/api", midsec.Middleware(midsec.DefaultOptions(jwtOpts)))
	auth.POST("/sessions/revoke", sessions.Revoke)
	auth.GET("/users/:id/status", sessions.Status)

	r.GET("/healthz", func(c *gin.Context) {
		if _, ok := mgo.TryGetDB(); !ok {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	logger.Infof("[HTTP] listening on %s", cfg.Server.Addr)
	if err := r.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}
