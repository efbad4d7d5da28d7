package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"swipereel/internal/auth"
	"swipereel/internal/catalog"
	"swipereel/internal/collections"
	"swipereel/internal/friends"
	"swipereel/internal/hub"
	"swipereel/internal/prefs"
	"swipereel/internal/session"
	"swipereel/internal/share"
	"swipereel/pkg/database"
	"swipereel/pkg/utils"
)

func main() {
	utils.LoadDotEnv()

	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	// Redis is optional: without it favorite lookups fall back to SQLite.
	var rdb *redis.Client
	redisCfg := utils.LoadRedisConfig()
	if redisCfg.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		defer rdb.Close()
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	eventHub := hub.NewHub()
	router.GET("/ws", hub.WSHandler(eventHub))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := eventHub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"db_error":   err.Error(),
				"ws_clients": stats.WSClients,
			})
			return
		}

		ready := gin.H{
			"status":     "ready",
			"db":         "ok",
			"ws_clients": stats.WSClients,
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				ready["redis"] = "unavailable"
			} else {
				ready["redis"] = "ok"
			}
		}
		c.JSON(http.StatusOK, ready)
	})

	router.GET("/debug", func(c *gin.Context) {
		stats := eventHub.Stats()
		c.JSON(http.StatusOK, gin.H{
			"db":         cfg.Path,
			"redis":      rdb != nil,
			"ws_clients": stats.WSClients,
		})
	})

	// Catalog (public)
	catalogCfg := utils.LoadCatalogConfig()
	catalogClient := catalog.NewClient(catalogCfg.APIKey, catalogCfg.BaseURL)
	catalogRepo := catalog.NewRepo(db)
	catalogHandler := catalog.NewHandler(catalogRepo, catalogClient)
	catalogHandler.RegisterRoutes(router.Group("/movies"))

	// Preferences auto-save, shared with auth so logout flushes pending edits
	prefsRepo := prefs.NewRepo(db)
	autoSaver := prefs.NewAutoSaver(prefsRepo)

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	authHandler := &auth.Handler{Repo: authRepo, Tokens: tokenSvc, Flusher: autoSaver}
	authHandler.RegisterRoutes(router.Group("/auth"))

	// Protected routes
	protected := router.Group("/users")
	protected.Use(auth.AuthMiddleware(tokenSvc, authRepo))

	protected.GET("/me", func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		// opening the profile is a natural settle point for pending edits
		autoSaver.FlushUser(c.Request.Context(), claims.UserID)

		user, err := authRepo.GetByID(c.Request.Context(), claims.UserID)
		if err != nil || user == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"email":        user.Email,
			"display_name": user.DisplayName,
			"photo_url":    user.PhotoURL,
		})
	})

	protected.PUT("/me", func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req struct {
			DisplayName string `json:"display_name"`
			PhotoURL    string `json:"photo_url"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if req.DisplayName == "" {
			req.DisplayName = claims.Username
		}

		if err := authRepo.UpdateProfile(c.Request.Context(), claims.UserID, req.DisplayName, req.PhotoURL); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":           claims.UserID,
			"display_name": req.DisplayName,
			"photo_url":    req.PhotoURL,
		})
	})

	prefsHandler := prefs.NewHandler(prefsRepo, autoSaver)
	prefsHandler.RegisterRoutes(protected)

	// Swipe sessions write through to collections
	collectionsRepo := collections.NewRepo(db)
	sessionManager := session.NewManager(collectionsRepo, session.SystemClock)
	sessionHandler := session.NewHandler(sessionManager, catalogRepo, collectionsRepo)
	sessionHandler.RegisterRoutes(protected)

	favoriteCache := collections.NewFavoriteCache(rdb)
	collectionsHandler := collections.NewHandler(collectionsRepo, favoriteCache, eventHub, sessionManager)
	collectionsHandler.RegisterRoutes(protected)

	friendsRepo := friends.NewRepo(db)
	friendsHandler := friends.NewHandler(friendsRepo, authRepo)
	friendsHandler.RegisterRoutes(protected)

	mailer := share.NewMailer(utils.LoadShareConfig(), nil)
	shareHandler := share.NewHandler(mailer, catalogRepo)
	shareHandler.RegisterRoutes(protected)

	addr := os.Getenv("SWIPEREEL_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API server listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// write out any debounced preference edits before the process dies
	autoSaver.FlushAll(shutdownCtx)

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("server stopped")
}
