// Package api exposes the bot's control surface over HTTP.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"solana-copy-bot/internal/bot"
	"solana-copy-bot/internal/observability"
)

// NewRouter builds the gin engine with all routes registered.
func NewRouter(manager *bot.Manager, logger *logrus.Entry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	h := NewHandler(manager, logger)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "solana-copy-bot"})
	})
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/status", h.Status)
		v1.GET("/stats", h.Stats)
		v1.GET("/transactions", h.Transactions)

		v1.POST("/bot/start", h.Start)
		v1.POST("/bot/stop", h.Stop)
		v1.GET("/bot/balance", h.BotBalance)

		v1.GET("/wallets", h.ListWallets)
		v1.POST("/wallets", h.AddWallet)
		v1.GET("/wallets/:address", h.GetWallet)
		v1.PATCH("/wallets/:address", h.UpdateWallet)
		v1.DELETE("/wallets/:address", h.RemoveWallet)
		v1.GET("/wallets/:address/balance", h.WalletBalance)
	}

	return r
}
