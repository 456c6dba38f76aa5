package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/example/dinein/pkg/apperr"
	"github.com/example/dinein/pkg/billing"
	"github.com/example/dinein/pkg/checkout"
	"github.com/example/dinein/pkg/config"
	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/repository"
	"github.com/example/dinein/pkg/session"
	"github.com/example/dinein/pkg/store"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// AuditReader lists audit entries for an entity, newest first.
type AuditReader interface {
	GetAuditLogs(ctx context.Context, q repository.AuditQuery) ([]*repository.AuditLog, error)
}

// HealthProber pings backing services and returns the failures by name.
type HealthProber interface {
	Probe(ctx context.Context) map[string]error
}

type Options struct {
	Audit  AuditReader
	Health HealthProber
}

type Gateway struct {
	config   *config.Config
	logger   *zap.Logger
	router   *gin.Engine
	server   *http.Server
	store    store.RecordStore
	sessions *session.Manager
	billing  *billing.Service
	methods  []models.PaymentMethod
	audit    AuditReader
	health   HealthProber
}

func NewGateway(cfg *config.Config, logger *zap.Logger, s store.RecordStore, opts Options) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	methods := cfg.Dine.Methods()
	if len(methods) == 0 {
		methods = models.DefaultPaymentMethods
	}

	g := &Gateway{
		config:   cfg,
		logger:   logger,
		router:   router,
		store:    s,
		sessions: session.NewManager(s, logger.Named("session")),
		billing: billing.NewService(s, billing.Config{
			RequireDelivered: cfg.Dine.RequireDeliveredForBill,
			Logger:           logger.Named("billing"),
		}),
		methods: methods,
		audit:   opts.Audit,
		health:  opts.Health,
	}
	g.SetupRoutes()
	return g
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", g.healthCheck)

	v1 := g.router.Group("/api/v1")
	{
		tables := v1.Group("/tables")
		{
			tables.GET("", g.listTables)
			tables.POST("", g.createTable)
			tables.POST("/pick", g.pickTable)
			tables.GET("/:id", g.getTable)
			tables.PATCH("/:id", g.updateTable)
			tables.DELETE("/:id", g.deleteTable)
			tables.GET("/:id/customers", g.listCustomers)
			tables.GET("/:id/cart", g.getCart)
		}

		customers := v1.Group("/customers")
		{
			customers.POST("", g.createCustomer)
			customers.PUT("", g.updateCustomers)
			customers.DELETE("/:id/table", g.unassignCustomer)
		}

		carts := v1.Group("/carts")
		{
			carts.PUT("/:id", g.updateCart)
			carts.POST("/:id/checkout", g.checkoutCart)
		}

		orders := v1.Group("/orders")
		{
			orders.GET("/:id", g.getOrder)
			orders.GET("/:id/items", g.listOrderItems)
			orders.GET("/:id/bill", g.getBill)
			orders.POST("/:id/bill", g.generateBill)
		}

		items := v1.Group("/order-items")
		{
			items.GET("", g.listActiveItems)
			items.POST("/:id/prepared", g.markPrepared)
			items.POST("/:id/delivered", g.markDelivered)
			items.POST("/:id/undo-delivery", g.undoDelivery)
		}

		bills := v1.Group("/bills")
		{
			bills.PUT("/:id/status", g.updateBillStatus)
			bills.POST("/:id/email", g.emailBill)
			bills.POST("/:id/feedback", g.submitFeedback)
		}

		v1.GET("/menu", g.listMenu)
		v1.GET("/audit/:entityId", g.listAudit)
	}

	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) Start() error {
	addr := fmt.Sprintf("%s:%d", g.config.Gateway.Host, g.config.Gateway.Port)
	g.server = &http.Server{Addr: addr, Handler: g.router}
	g.logger.Info("Gateway starting", zap.String("address", addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

// writeError maps the error kinds onto HTTP statuses.
func (g *Gateway) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperr.IsValidation(err):
		status = http.StatusBadRequest
	case apperr.IsStateTransition(err):
		status = http.StatusConflict
	case apperr.IsDataIntegrity(err):
		status = http.StatusUnprocessableEntity
	case apperr.CodeOf(err) == apperr.CodeNotFound:
		status = http.StatusNotFound
	case apperr.CodeOf(err) == apperr.CodeConflict:
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		g.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (g *Gateway) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (g *Gateway) healthCheck(c *gin.Context) {
	if g.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	failed := g.health.Probe(c.Request.Context())
	if len(failed) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	deps := gin.H{}
	for name, err := range failed {
		deps[name] = err.Error()
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "failed": deps})
}

// Tables

func (g *Gateway) listTables(c *gin.Context) {
	list := g.sessions.Tables
	if c.Query("visible") == "true" {
		list = g.sessions.VisibleTables
	}
	tables, err := list(c.Request.Context())
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables, "total": len(tables)})
}

func (g *Gateway) createTable(c *gin.Context) {
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if c.Request.ContentLength > 0 && !g.bind(c, &req) {
		return
	}
	t, err := g.sessions.CreateTable(c.Request.Context(), req.DisplayName)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (g *Gateway) pickTable(c *gin.Context) {
	t, err := g.sessions.PickFreeTable(c.Request.Context())
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (g *Gateway) getTable(c *gin.Context) {
	t, err := g.store.FetchTable(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"table": t, "name": t.Name()})
}

func (g *Gateway) updateTable(c *gin.Context) {
	var fields models.TableFields
	if !g.bind(c, &fields) {
		return
	}
	ctx, id := c.Request.Context(), c.Param("id")

	var err error
	if fields.DisplayName != nil {
		err = g.sessions.RenameTable(ctx, id, *fields.DisplayName)
	}
	if err == nil && fields.QRCode != nil {
		err = g.sessions.SetQRCode(ctx, id, *fields.QRCode)
	}
	if err == nil && fields.Disabled != nil {
		if *fields.Disabled {
			err = g.sessions.DisableTable(ctx, id)
		} else {
			err = g.sessions.EnableTable(ctx, id)
		}
	}
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "message": "Table updated successfully"})
}

func (g *Gateway) deleteTable(c *gin.Context) {
	if err := g.sessions.DeleteTable(c.Request.Context(), c.Param("id")); err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (g *Gateway) listCustomers(c *gin.Context) {
	customers, err := g.sessions.Customers(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers, "total": len(customers)})
}

func (g *Gateway) getCart(c *gin.Context) {
	cart, err := g.store.FetchActiveCart(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	lines, err := models.DecodeLines(cart.ItemsJSON)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       cart.ID,
		"table_id": cart.TableID,
		"items":    lines,
		"total":    cart.TotalAmount,
		"display":  models.FormatMoney(cart.TotalAmount, g.config.Dine.Currency),
		"version":  cart.Version,
	})
}

// Customers

func (g *Gateway) createCustomer(c *gin.Context) {
	var fields models.CustomerFields
	if !g.bind(c, &fields) {
		return
	}
	customer, err := g.sessions.CreateCustomer(c.Request.Context(), fields)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (g *Gateway) updateCustomers(c *gin.Context) {
	var updates []models.CustomerUpdate
	if !g.bind(c, &updates) {
		return
	}
	if err := g.sessions.UpdateCustomers(c.Request.Context(), updates); err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(updates)})
}

func (g *Gateway) unassignCustomer(c *gin.Context) {
	if err := g.sessions.UnassignCustomer(c.Request.Context(), c.Param("id")); err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Carts and orders

type cartRequest struct {
	Items     []models.CartItem `json:"items"`
	IfVersion int64             `json:"if_version"`
}

func (g *Gateway) updateCart(c *gin.Context) {
	var req cartRequest
	if !g.bind(c, &req) {
		return
	}
	for _, l := range req.Items {
		if l.ItemID == "" || l.Quantity < 1 || l.UnitPrice.IsNegative() {
			g.writeError(c, apperr.Validation("items", "Every line needs an id, a positive quantity and a price"))
			return
		}
	}
	if id, dup := models.DuplicateItemID(req.Items); dup {
		g.writeError(c, apperr.Validation("items", "Item "+id+" appears on more than one line"))
		return
	}
	raw, err := models.EncodeLines(req.Items)
	if err != nil {
		g.writeError(c, err)
		return
	}
	version, err := g.store.UpdateCart(c.Request.Context(), models.CartUpdate{
		CartID:    c.Param("id"),
		ItemsJSON: raw,
		Total:     models.SumLines(req.Items),
		IfVersion: req.IfVersion,
	})
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "version": version})
}

func (g *Gateway) checkoutCart(c *gin.Context) {
	var req struct {
		PaymentMethod models.PaymentMethod `json:"payment_method"`
	}
	if !g.bind(c, &req) {
		return
	}
	if err := checkout.ValidatePaymentMethod(req.PaymentMethod, g.methods); err != nil {
		g.writeError(c, err)
		return
	}
	order, err := g.store.Checkout(c.Request.Context(), c.Param("id"), req.PaymentMethod)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (g *Gateway) getOrder(c *gin.Context) {
	order, err := g.store.FetchOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (g *Gateway) listOrderItems(c *gin.Context) {
	items, err := g.store.FetchOrderItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (g *Gateway) getBill(c *gin.Context) {
	bill, err := g.store.FetchBillForOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	g.respondBill(c, http.StatusOK, bill)
}

func (g *Gateway) generateBill(c *gin.Context) {
	bill, err := g.billing.Generate(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	g.respondBill(c, http.StatusOK, bill)
}

func (g *Gateway) respondBill(c *gin.Context, status int, bill *models.Bill) {
	name := g.sessions.TableName(c.Request.Context(), bill.TableID)
	summary := billing.Summarize(*bill, name, g.config.Dine.TaxRate(), nil)
	c.JSON(status, gin.H{
		"bill":     bill,
		"lines":    summary.Lines,
		"subtotal": summary.Breakdown.Subtotal,
		"tax":      summary.Breakdown.Tax,
		"grand":    summary.Breakdown.Grand,
		"table":    summary.TableName,
	})
}

// Order items

func (g *Gateway) listActiveItems(c *gin.Context) {
	items, err := g.store.FetchActiveOrderItems(c.Request.Context())
	if err != nil {
		g.writeError(c, err)
		return
	}
	if s := c.Query("status"); s != "" {
		status, err := models.ParseItemStatus(s)
		if err != nil {
			g.writeError(c, apperr.Validation("status", err.Error()))
			return
		}
		kept := items[:0]
		for _, it := range items {
			if it.Status == status {
				kept = append(kept, it)
			}
		}
		items = kept
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (g *Gateway) transition(c *gin.Context, call func(context.Context, string) error, message string) {
	if err := call(c.Request.Context(), c.Param("id")); err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "message": message})
}

func (g *Gateway) markPrepared(c *gin.Context) {
	g.transition(c, g.store.MarkItemPrepared, "Item marked as prepared")
}

func (g *Gateway) markDelivered(c *gin.Context) {
	g.transition(c, g.store.MarkItemDelivered, "Item marked as delivered")
}

func (g *Gateway) undoDelivery(c *gin.Context) {
	g.transition(c, g.store.UndoItemDelivery, "Delivery undone")
}

// Bills

func (g *Gateway) updateBillStatus(c *gin.Context) {
	var req struct {
		Status    string `json:"status" binding:"required"`
		IfVersion int64  `json:"if_version"`
	}
	if !g.bind(c, &req) {
		return
	}
	status, err := models.ParseBillStatus(req.Status)
	if err != nil {
		g.writeError(c, apperr.Validation("status", err.Error()))
		return
	}
	if err := g.store.UpdateBillStatus(c.Request.Context(), c.Param("id"), status, req.IfVersion); err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": status})
}

func (g *Gateway) emailBill(c *gin.Context) {
	var req struct {
		Address string `json:"address"`
	}
	if !g.bind(c, &req) {
		return
	}
	if err := billing.SendEmail(c.Request.Context(), g.store, c.Param("id"), req.Address); err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Bill sent"})
}

func (g *Gateway) submitFeedback(c *gin.Context) {
	var req struct {
		MenuItemID string `json:"menu_item_id" binding:"required"`
		Rating     int    `json:"rating"`
		Comments   string `json:"comments"`
	}
	if !g.bind(c, &req) {
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		g.writeError(c, apperr.Validation("rating", "Rating must be between 1 and 5"))
		return
	}
	err := g.store.SubmitDishFeedback(c.Request.Context(), models.DishFeedback{
		BillID:     c.Param("id"),
		MenuItemID: req.MenuItemID,
		Rating:     req.Rating,
		Comments:   req.Comments,
	})
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Thanks for your feedback"})
}

// Menu and audit

func (g *Gateway) listMenu(c *gin.Context) {
	items, err := g.store.FetchMenuItems(c.Request.Context(), c.Query("category"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (g *Gateway) listAudit(c *gin.Context) {
	if g.audit == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "audit log is not configured"})
		return
	}
	q := repository.AuditQuery{
		EntityID: c.Param("entityId"),
		Kind:     repository.EntityKind(c.Query("kind")),
		Action:   repository.AuditAction(c.Query("action")),
	}
	if s := c.Query("limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 1 {
			g.writeError(c, apperr.Validation("limit", "limit must be a positive integer"))
			return
		}
		q.Limit = n
	}
	if err := q.Validate(); err != nil {
		g.writeError(c, err)
		return
	}
	logs, err := g.audit.GetAuditLogs(c.Request.Context(), q)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": logs, "total": len(logs)})
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
