package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"solana-copy-bot/internal/bot"
	"solana-copy-bot/internal/domain"
	"solana-copy-bot/internal/storage"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Handler serves the control API backed by the bot manager.
type Handler struct {
	manager *bot.Manager
	log     *logrus.Entry
}

func NewHandler(manager *bot.Manager, logger *logrus.Entry) *Handler {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Handler{manager: manager, log: logger}
}

// ready guards every route against a manager that failed to initialize.
func (h *Handler) ready(c *gin.Context) bool {
	if h.manager == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "bot unavailable"})
		return false
	}
	return true
}

func (h *Handler) Status(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	c.JSON(http.StatusOK, h.manager.Status())
}

func (h *Handler) Stats(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	c.JSON(http.StatusOK, h.manager.Stats())
}

func (h *Handler) Start(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	if err := h.manager.Start(c.Request.Context()); err != nil {
		if errors.Is(err, bot.ErrAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.manager.Status())
}

func (h *Handler) Stop(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	if err := h.manager.Stop(c.Request.Context()); err != nil {
		if errors.Is(err, bot.ErrNotRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.manager.Status())
}

// Transactions returns a page of the in-memory history. The offset
// counts back from the newest entry; the page itself is chronological.
func (h *Handler) Transactions(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	limit := defaultHistoryLimit
	offset := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
			return
		}
		offset = parsed
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": h.manager.History(limit, offset),
		"total":        h.manager.HistoryLen(),
		"limit":        limit,
		"offset":       offset,
	})
}

func (h *Handler) ListWallets(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallets": h.manager.Wallets()})
}

func (h *Handler) GetWallet(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	w, err := h.manager.Wallet(c.Param("address"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "wallet not found"})
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) AddWallet(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	// Toggles default to on; an explicit false in the body overrides.
	w := domain.WalletPolicy{Enabled: true, CopySOL: true, CopySPL: true, CopySwaps: true}
	if err := c.ShouldBindJSON(&w); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.manager.AddWallet(c.Request.Context(), w)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, w)
	case errors.Is(err, storage.ErrDuplicateKey):
		c.JSON(http.StatusConflict, gin.H{"error": "wallet already exists"})
	case errors.Is(err, storage.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) UpdateWallet(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var u domain.WalletUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := h.manager.UpdateWallet(c.Request.Context(), c.Param("address"), u)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, w)
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "wallet not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) RemoveWallet(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	err := h.manager.RemoveWallet(c.Request.Context(), c.Param("address"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"removed": c.Param("address")})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "wallet not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) WalletBalance(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	address := c.Param("address")
	balance, err := h.manager.WalletBalance(c.Request.Context(), address)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address, "balance_sol": balance})
}

func (h *Handler) BotBalance(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	balance, err := h.manager.OperatorBalance(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": h.manager.OperatorAddress(), "balance_sol": balance})
}
