package app

import (
	"fmt"
	"net/http"
	"time"

	"quddle-backend/pkg/logger"
	"quddle-backend/pkg/metrics"
	"quddle-backend/pkg/middleware"
	"quddle-backend/pkg/ratelimit"
	"quddle-backend/pkg/response"
	apiHTTP "quddle-backend/services/api/internal/controller/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "quddle-backend/services/api/docs" // Swagger docs
)

type routerDeps struct {
	auth           *apiHTTP.AuthHandler
	wallet         *apiHTTP.WalletHandler
	ads            *apiHTTP.AdHandler
	reels          *apiHTTP.ReelHandler
	classifieds    *apiHTTP.ClassifiedHandler
	verifier       middleware.TokenVerifier
	adEventLimiter ratelimit.Limiter
	trustedProxies []string
	log            *logger.Logger
	startedAt      time.Time
}

func newRouter(d routerDeps) (*gin.Engine, error) {
	r := gin.New()
	// With no trusted proxies ClientIP is the socket address, so a forged
	// X-Forwarded-For cannot open a fresh rate limit window.
	if err := r.SetTrustedProxies(d.trustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	r.Use(middleware.Recovery(d.log))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(d.log))

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", "Accept", "Stripe-Signature", "x-aws-secret", middleware.RequestIDHeader},
		ExposeHeaders:   []string{"Content-Length", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", middleware.RequestIDHeader},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/", func(c *gin.Context) {
		response.OK(c, http.StatusOK, gin.H{"message": "Welcome to the Quddle API"})
	})

	// Metrics and swagger documentation
	r.GET("/metrics", metrics.Handler())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := middleware.AuthMiddleware(d.verifier)
	adEvents := middleware.RateLimitMiddleware(d.adEventLimiter, d.log)

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			response.OK(c, http.StatusOK, gin.H{
				"status":    "ok",
				"uptime":    time.Since(d.startedAt).Seconds(),
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
		})

		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", d.auth.Register)
			authRoutes.POST("/login", d.auth.Login)
			authRoutes.POST("/refresh", d.auth.Refresh)
			authRoutes.POST("/logout", d.auth.Logout)
			authRoutes.GET("/profile/:userId", auth, d.auth.GetProfile)
		}

		walletRoutes := api.Group("/wallet", auth)
		{
			walletRoutes.GET("", d.wallet.GetWallet)
			walletRoutes.GET("/transactions", d.wallet.GetTransactions)
		}

		adRoutes := api.Group("/ads")
		{
			adRoutes.GET("", d.ads.ListActiveAds)
			adRoutes.POST("", auth, d.ads.CreateAd)
			adRoutes.GET("/my", auth, d.ads.ListMyAds)
			adRoutes.POST("/webhook/stripe", d.ads.PaymentWebhook)
			adRoutes.GET("/:id", d.ads.GetAd)
			adRoutes.PUT("/:id", auth, d.ads.UpdateAd)
			adRoutes.DELETE("/:id", auth, d.ads.DeleteAd)
			adRoutes.POST("/:id/impression", adEvents, d.ads.RecordImpression)
			adRoutes.POST("/:id/click", adEvents, d.ads.RecordClick)
			adRoutes.POST("/:id/payment", auth, d.ads.InitiatePayment)
		}

		reelRoutes := api.Group("/reels")
		{
			// Called by the transcoding pipeline with the shared secret, not a user token.
			reelRoutes.POST("/aws-update", d.reels.TranscodeUpdate)

			protected := reelRoutes.Group("", auth)
			protected.POST("/presign", d.reels.Presign)
			protected.POST("/finalize", d.reels.Finalize)
			protected.GET("", d.reels.ListMyReels)
			protected.GET("/all", d.reels.ListAllReels)
			protected.GET("/:id/playback-url", d.reels.PlaybackURL)
			protected.DELETE("/:id", d.reels.DeleteReel)
			protected.POST("/:id/like", d.reels.ToggleLike)
		}

		classifiedRoutes := api.Group("/classifieds")
		{
			classifiedRoutes.GET("", d.classifieds.ListClassifieds)
			classifiedRoutes.POST("", auth, d.classifieds.PostClassified)
			classifiedRoutes.GET("/my", auth, d.classifieds.ListMyClassifieds)
			classifiedRoutes.PUT("/:id/images", auth, d.classifieds.UpdateImages)
		}
	}

	r.NoRoute(middleware.NoRoute)

	return r, nil
}
