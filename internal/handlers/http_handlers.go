package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"charitylottery/internal/models"
	"charitylottery/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OwnerHeader carries the identity of the account making the request.
const OwnerHeader = "X-Owner-ID"

const ownerKey = "owner"

// HTTPHandler holds the dependencies for the HTTP handlers.
type HTTPHandler struct {
	lottery *services.LotteryService
	charity *services.CharityService
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(lottery *services.LotteryService, charity *services.CharityService) *HTTPHandler {
	return &HTTPHandler{
		lottery: lottery,
		charity: charity,
	}
}

// RegisterPublicRoutes registers routes that need no owner identity.
func (h *HTTPHandler) RegisterPublicRoutes(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/draw", h.GetDrawRecorder)
	router.POST("/draw/advance", h.AdvanceDraw)
	router.POST("/draw/numbers", h.DrawWinningNumbers)
	router.GET("/draw/:number/numbers", h.GetWinningNumbers)
	router.GET("/pool", h.GetPrizePool)
	router.GET("/balances/:account", h.GetBalances)
	router.GET("/projects/:creator/:name", h.GetProject)
}

// RegisterOwnerRoutes registers routes that act on behalf of the owner.
func (h *HTTPHandler) RegisterOwnerRoutes(router gin.IRoutes) {
	router.POST("/tickets", h.BuyTicket)
	router.GET("/tickets/:draw", h.GetTicket)
	router.POST("/tickets/:draw/check", h.CheckTicket)
	router.POST("/projects", h.PublishProject)
	router.POST("/projects/:creator/:name/support", h.SupportProject)
}

// OwnerMiddleware rejects requests without an owner identity and stores it
// in the context for the handlers.
func (h *HTTPHandler) OwnerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := c.GetHeader(OwnerHeader)
		if owner == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": OwnerHeader + " header is required"})
			return
		}
		c.Set(ownerKey, owner)
		c.Next()
	}
}

func owner(c *gin.Context) string {
	return c.GetString(ownerKey)
}

// writeError maps service errors onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case services.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrNotTimeYet):
		status = http.StatusTooEarly
	case services.IsPrecondition(err):
		status = http.StatusBadRequest
	case services.IsArithmetic(err):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func uintParam(c *gin.Context, name string) (uint64, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

// GetDrawRecorder returns the current draw number and epoch.
func (h *HTTPHandler) GetDrawRecorder(c *gin.Context) {
	recorder, err := h.lottery.DrawRecorder(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recorder)
}

// AdvanceDraw starts the next draw.
func (h *HTTPHandler) AdvanceDraw(c *gin.Context) {
	recorder, err := h.lottery.AdvanceDraw(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recorder)
}

// DrawWinningNumbers draws the numbers of the current draw.
func (h *HTTPHandler) DrawWinningNumbers(c *gin.Context) {
	winning, err := h.lottery.DrawWinningNumbers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, winning)
}

// GetWinningNumbers returns the numbers of a past or current draw.
func (h *HTTPHandler) GetWinningNumbers(c *gin.Context) {
	draw, ok := uintParam(c, "number")
	if !ok {
		return
	}
	winning, err := h.lottery.WinningNumbers(c.Request.Context(), draw)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, winning)
}

// GetPrizePool returns the prize pool balance.
func (h *HTTPHandler) GetPrizePool(c *gin.Context) {
	pool, err := h.lottery.PrizePool(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pool)
}

// GetBalances returns an account's currency and charity-token balances.
func (h *HTTPHandler) GetBalances(c *gin.Context) {
	account := c.Param("account")
	balance, err := h.lottery.Balance(c.Request.Context(), account)
	if err != nil {
		writeError(c, err)
		return
	}
	tokens, err := h.lottery.TokenBalance(c.Request.Context(), account)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "balance": balance, "charityTokens": tokens})
}

type buyTicketRequest struct {
	Guide         string  `json:"guide"`
	CommonNumbers []uint8 `json:"commonNumbers"`
	SpecialNumber uint8   `json:"specialNumber"`
}

// BuyTicket buys a ticket for the current draw.
func (h *HTTPHandler) BuyTicket(c *gin.Context) {
	var req buyTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.CommonNumbers) != models.CommonNumberCount {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("exactly %d common numbers are required", models.CommonNumberCount)})
		return
	}
	var common [models.CommonNumberCount]uint8
	copy(common[:], req.CommonNumbers)

	ticket, err := h.lottery.BuyTicket(c.Request.Context(), services.BuyRequest{
		Owner:         owner(c),
		Guide:         req.Guide,
		CommonNumbers: common,
		SpecialNumber: req.SpecialNumber,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// GetTicket returns the owner's ticket for a draw.
func (h *HTTPHandler) GetTicket(c *gin.Context) {
	draw, ok := uintParam(c, "draw")
	if !ok {
		return
	}
	ticket, err := h.lottery.Ticket(c.Request.Context(), owner(c), draw)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// CheckTicket settles the owner's ticket for a draw.
func (h *HTTPHandler) CheckTicket(c *gin.Context) {
	draw, ok := uintParam(c, "draw")
	if !ok {
		return
	}
	outcome, err := h.lottery.CheckTicket(c.Request.Context(), owner(c), draw)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

type publishProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PublishProject registers a charity project owned by the caller.
func (h *HTTPHandler) PublishProject(c *gin.Context) {
	var req publishProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	project, err := h.charity.PublishProject(c.Request.Context(), owner(c), req.Name, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// GetProject returns a charity project.
func (h *HTTPHandler) GetProject(c *gin.Context) {
	project, err := h.charity.Project(c.Request.Context(), c.Param("creator"), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

type supportProjectRequest struct {
	Amount uint64 `json:"amount"`
}

// SupportProject donates the caller's charity tokens to a project.
func (h *HTTPHandler) SupportProject(c *gin.Context) {
	var req supportProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	units, err := h.charity.SupportProject(c.Request.Context(), owner(c), c.Param("creator"), c.Param("name"), req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transferred": units})
}
