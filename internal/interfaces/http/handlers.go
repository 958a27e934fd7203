package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/rfq-procurement/internal/application/service"
	appwf "github.com/garyjia/rfq-procurement/internal/application/workflow"
	"github.com/garyjia/rfq-procurement/internal/currency"
	"github.com/garyjia/rfq-procurement/internal/domain/entity"
	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	rfqService         service.RfqService
	orderService       service.OrderService
	negotiationService service.NegotiationSession
	engine             appwf.Engine
	converter          *currency.Converter
	invitationTTL      time.Duration
	logger             Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	rfqService service.RfqService,
	orderService service.OrderService,
	negotiationService service.NegotiationSession,
	engine appwf.Engine,
	converter *currency.Converter,
	invitationTTL time.Duration,
	logger Logger,
) *Handlers {
	return &Handlers{
		rfqService:         rfqService,
		orderService:       orderService,
		negotiationService: negotiationService,
		engine:             engine,
		converter:          converter,
		invitationTTL:      invitationTTL,
		logger:             logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

func (h *Handlers) ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func (h *Handlers) created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	h.ok(c, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	})
}

// --- RFQs ---

type createRfqRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Currency    string          `json:"currency" binding:"required"`
	BudgetMin   decimal.Decimal `json:"budget_min"`
	BudgetMax   decimal.Decimal `json:"budget_max"`
	BidDeadline time.Time       `json:"bid_deadline" binding:"required"`
}

// CreateRfq handles POST /api/rfqs
func (h *Handlers) CreateRfq(c *gin.Context) {
	var req createRfqRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	rfq, err := h.rfqService.CreateRfq(c.Request.Context(), requestActor(c), service.CreateRfqInput{
		Title:       req.Title,
		Description: req.Description,
		Currency:    req.Currency,
		BudgetMin:   req.BudgetMin,
		BudgetMax:   req.BudgetMax,
		BidDeadline: req.BidDeadline,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, rfq)
}

// GetRfq handles GET /api/rfqs/:id
func (h *Handlers) GetRfq(c *gin.Context) {
	rfq, err := h.rfqService.GetRfq(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, rfq)
}

type addItemRequest struct {
	Description string          `json:"description" binding:"required"`
	Quantity    int             `json:"quantity" binding:"required"`
	Unit        string          `json:"unit"`
	TargetPrice decimal.Decimal `json:"target_price"`
}

// AddRfqItem handles POST /api/rfqs/:id/items
func (h *Handlers) AddRfqItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	item, err := h.rfqService.AddItem(c.Request.Context(), c.Param("id"), requestActor(c), service.RfqItemInput{
		Description: req.Description,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		TargetPrice: req.TargetPrice,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, item)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// PublishRfq handles POST /api/rfqs/:id/publish
func (h *Handlers) PublishRfq(c *gin.Context) {
	rfq, err := h.rfqService.Publish(c.Request.Context(), c.Param("id"), requestActor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, rfq)
}

// CloseBidding handles POST /api/rfqs/:id/close
func (h *Handlers) CloseBidding(c *gin.Context) {
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "bidding closed"
	}

	rfq, err := h.rfqService.CloseBidding(c.Request.Context(), c.Param("id"), requestActor(c), req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, rfq)
}

// CancelRfq handles POST /api/rfqs/:id/cancel
func (h *Handlers) CancelRfq(c *gin.Context) {
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "rfq cancelled"
	}

	rfq, err := h.rfqService.Cancel(c.Request.Context(), c.Param("id"), requestActor(c), req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, rfq)
}

// ListBids handles GET /api/rfqs/:id/bids
func (h *Handlers) ListBids(c *gin.Context) {
	bids, err := h.rfqService.ListBids(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, bids)
}

type inviteSupplierRequest struct {
	SupplierCompanyID string `json:"supplier_company_id" binding:"required"`
	ValidFor          string `json:"valid_for"`
}

// InviteSupplier handles POST /api/rfqs/:id/invitations
func (h *Handlers) InviteSupplier(c *gin.Context) {
	var req inviteSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	validFor := h.invitationTTL
	if req.ValidFor != "" {
		d, err := time.ParseDuration(req.ValidFor)
		if err != nil {
			h.badRequest(c, "invalid valid_for duration")
			return
		}
		validFor = d
	}

	invitation, err := h.rfqService.InviteSupplier(c.Request.Context(), c.Param("id"),
		requestActor(c), req.SupplierCompanyID, validFor)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, invitation)
}

// AcceptInvitation handles POST /api/invitations/:token/accept
func (h *Handlers) AcceptInvitation(c *gin.Context) {
	invitation, err := h.rfqService.AcceptInvitation(c.Request.Context(), c.Param("token"), requestActor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, invitation)
}

// --- Bids ---

type createBidRequest struct {
	RfqID       string          `json:"rfq_id" binding:"required"`
	TotalAmount decimal.Decimal `json:"total_amount" binding:"required"`
	Currency    string          `json:"currency" binding:"required"`
	Notes       string          `json:"notes"`
}

// CreateBid handles POST /api/bids
func (h *Handlers) CreateBid(c *gin.Context) {
	var req createBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	bid, err := h.rfqService.CreateBid(c.Request.Context(), requestActor(c), service.CreateBidInput{
		RfqID:       req.RfqID,
		TotalAmount: req.TotalAmount,
		Currency:    req.Currency,
		Notes:       req.Notes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, bid)
}

// SubmitBid handles POST /api/bids/:id/submit
func (h *Handlers) SubmitBid(c *gin.Context) {
	bid, err := h.rfqService.SubmitBid(c.Request.Context(), c.Param("id"), requestActor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, bid)
}

// ReviewBid handles POST /api/bids/:id/review
func (h *Handlers) ReviewBid(c *gin.Context) {
	bid, err := h.rfqService.ReviewBid(c.Request.Context(), c.Param("id"), requestActor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, bid)
}

// RejectBid handles POST /api/bids/:id/reject
func (h *Handlers) RejectBid(c *gin.Context) {
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "bid rejected"
	}

	bid, err := h.rfqService.RejectBid(c.Request.Context(), c.Param("id"), requestActor(c), req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, bid)
}

// AwardBid handles POST /api/bids/:id/award
func (h *Handlers) AwardBid(c *gin.Context) {
	order, err := h.rfqService.AwardBid(c.Request.Context(), c.Param("id"), requestActor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, order)
}

// --- Negotiations ---

type openNegotiationRequest struct {
	RfqID             string     `json:"rfq_id" binding:"required"`
	BidID             string     `json:"bid_id"`
	SupplierCompanyID string     `json:"supplier_company_id" binding:"required"`
	ExpiresAt         *time.Time `json:"expires_at"`
}

// OpenNegotiation handles POST /api/negotiations
func (h *Handlers) OpenNegotiation(c *gin.Context) {
	var req openNegotiationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	n, err := h.negotiationService.Open(c.Request.Context(), requestActor(c), service.OpenNegotiationInput{
		RfqID:             req.RfqID,
		BidID:             req.BidID,
		SupplierCompanyID: req.SupplierCompanyID,
		ExpiresAt:         req.ExpiresAt,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, n)
}

// GetNegotiation handles GET /api/negotiations/:id
func (h *Handlers) GetNegotiation(c *gin.Context) {
	n, err := h.negotiationService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, n)
}

type postMessageRequest struct {
	Type  string              `json:"type" binding:"required"`
	Body  string              `json:"body"`
	Offer *service.OfferInput `json:"offer"`
}

// PostNegotiationMessage handles POST /api/negotiations/:id/messages
func (h *Handlers) PostNegotiationMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	msgType := entity.MessageType(req.Type)
	if msgType == entity.MessageSystem {
		h.badRequest(c, "system messages are not accepted over HTTP")
		return
	}

	msg, err := h.negotiationService.PostMessage(c.Request.Context(), c.Param("id"),
		requestActor(c), msgType, req.Body, req.Offer)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, msg)
}

// ListNegotiationMessages handles GET /api/negotiations/:id/messages
func (h *Handlers) ListNegotiationMessages(c *gin.Context) {
	messages, err := h.negotiationService.Messages(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, messages)
}

// CurrentTerms handles GET /api/negotiations/:id/terms
func (h *Handlers) CurrentTerms(c *gin.Context) {
	terms, err := h.negotiationService.CurrentTerms(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, terms)
}

// AcceptNegotiation handles POST /api/negotiations/:id/accept
func (h *Handlers) AcceptNegotiation(c *gin.Context) {
	n, err := h.negotiationService.Accept(c.Request.Context(), c.Param("id"), requestActor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, n)
}

// RejectNegotiation handles POST /api/negotiations/:id/reject
func (h *Handlers) RejectNegotiation(c *gin.Context) {
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "negotiation rejected"
	}

	n, err := h.negotiationService.Reject(c.Request.Context(), c.Param("id"), requestActor(c), req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, n)
}

// --- Purchase orders ---

// GetOrder handles GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	order, err := h.orderService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, order)
}

// SendOrder handles POST /api/orders/:id/send
func (h *Handlers) SendOrder(c *gin.Context) {
	order, err := h.orderService.Send(c.Request.Context(), c.Param("id"), requestActor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, order)
}

// StartOrder handles POST /api/orders/:id/start
func (h *Handlers) StartOrder(c *gin.Context) {
	order, err := h.orderService.Start(c.Request.Context(), c.Param("id"), requestActor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, order)
}

// MarkOrderDelivered handles POST /api/orders/:id/deliver
func (h *Handlers) MarkOrderDelivered(c *gin.Context) {
	order, err := h.orderService.MarkDelivered(c.Request.Context(), c.Param("id"), requestActor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, order)
}

// ConfirmOrder handles POST /api/orders/:id/confirm
func (h *Handlers) ConfirmOrder(c *gin.Context) {
	order, err := h.orderService.Confirm(c.Request.Context(), c.Param("id"), requestActor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, order)
}

type proposeModificationRequest struct {
	Description string `json:"description" binding:"required"`
}

// ProposeModification handles POST /api/orders/:id/modifications
func (h *Handlers) ProposeModification(c *gin.Context) {
	var req proposeModificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	mod, err := h.orderService.ProposeModification(c.Request.Context(), c.Param("id"),
		requestActor(c), req.Description)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, mod)
}

// ListModifications handles GET /api/orders/:id/modifications
func (h *Handlers) ListModifications(c *gin.Context) {
	mods, err := h.orderService.ListModifications(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, mods)
}

// ApproveModification handles POST /api/modifications/:id/approve
func (h *Handlers) ApproveModification(c *gin.Context) {
	mod, err := h.orderService.ApproveModification(c.Request.Context(), c.Param("id"), requestActor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, mod)
}

// RejectModification handles POST /api/modifications/:id/reject
func (h *Handlers) RejectModification(c *gin.Context) {
	mod, err := h.orderService.RejectModification(c.Request.Context(), c.Param("id"), requestActor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, mod)
}

// --- History ---

// EntityHistory handles GET /api/history/:entityType/:id
func (h *Handlers) EntityHistory(c *gin.Context) {
	entityType := workflow.EntityType(c.Param("entityType"))
	if !entityType.IsValid() {
		h.badRequest(c, "unknown entity type")
		return
	}

	entries, err := h.engine.History(c.Request.Context(), entityType, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, entries)
}

// --- Currency ---

type convertRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	From   string          `json:"from" binding:"required"`
	To     string          `json:"to" binding:"required"`
	Date   string          `json:"date"`
}

type convertResponse struct {
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Converted  decimal.Decimal `json:"converted"`
	ToCurrency string          `json:"to_currency"`
	Date       string          `json:"date"`
}

// ConvertAmount handles POST /api/currency/convert
func (h *Handlers) ConvertAmount(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			h.badRequest(c, "invalid date, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	converted, err := h.converter.Convert(c.Request.Context(), req.Amount, req.From, req.To, date)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, convertResponse{
		Amount:     req.Amount,
		Currency:   req.From,
		Converted:  converted,
		ToCurrency: req.To,
		Date:       date.Format("2006-01-02"),
	})
}
