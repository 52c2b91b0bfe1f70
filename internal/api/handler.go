package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"petmarket/internal/models"
	"petmarket/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog   *service.CatalogService
	carts     *service.CartService
	purchases *service.PurchaseService
	users     *service.UserService
	resets    *service.PasswordResetService
	auth      *AuthMiddleware
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalog *service.CatalogService,
	carts *service.CartService,
	purchases *service.PurchaseService,
	users *service.UserService,
	resets *service.PasswordResetService,
	auth *AuthMiddleware,
) *Handler {
	return &Handler{
		catalog:   catalog,
		carts:     carts,
		purchases: purchases,
		users:     users,
		resets:    resets,
		auth:      auth,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		sessions := api.Group("/sessions")
		{
			sessions.POST("/register", h.register)
			sessions.POST("/login", h.login)
			sessions.GET("/current", h.auth.RequireAuth(), h.current)
		}

		reset := api.Group("/password-reset")
		{
			reset.POST("/request", h.requestPasswordReset)
			reset.POST("/reset", h.resetPassword)
		}

		products := api.Group("/products")
		{
			products.GET("", h.listProducts)
			products.GET("/:pid", h.getProduct)
			products.POST("", h.auth.RequireAuth(), h.auth.RequireAdmin(), h.createProduct)
			products.PUT("/:pid", h.auth.RequireAuth(), h.auth.RequireAdmin(), h.updateProduct)
			products.DELETE("/:pid", h.auth.RequireAuth(), h.auth.RequireAdmin(), h.deleteProduct)
			products.PUT("/:pid/stock", h.auth.RequireAuth(), h.auth.RequireAdmin(), h.adjustStock)
		}

		carts := api.Group("/carts")
		{
			carts.POST("", h.createCart)
			carts.GET("/:cid", h.getCart)
			carts.PUT("/:cid", h.replaceCartItems)
			carts.DELETE("/:cid", h.clearCart)
			carts.POST("/:cid/products/:pid", h.addProductToCart)
			carts.PUT("/:cid/products/:pid", h.updateCartQuantity)
			carts.DELETE("/:cid/products/:pid", h.removeProductFromCart)
			carts.POST("/:cid/purchase", h.auth.RequireAuth(), h.purchase)
		}

		tickets := api.Group("/tickets", h.auth.RequireAuth())
		{
			tickets.GET("", h.getUserTickets)
			tickets.GET("/:tid", h.getTicket)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// --- sessions ---

func (h *Handler) register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "User registered",
		"payload": user,
	})
}

func (h *Handler) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	token, user, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Login successful",
		"token":   token,
		"payload": user,
	})
}

func (h *Handler) current(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"payload": currentUser(c),
	})
}

// --- password reset ---

func (h *Handler) requestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.resets.RequestReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "If the email exists, a reset link has been sent",
	})
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.resets.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Password updated",
	})
}

// --- products ---

func (h *Handler) listProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	sort := c.Query("sort")
	query := c.Query("query")

	result, err := h.catalog.ListProducts(c.Request.Context(), query, sort, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	baseURL := fmt.Sprintf("%s://%s%s", requestScheme(c), c.Request.Host, c.Request.URL.Path)
	var prevLink, nextLink *string
	if result.HasPrev {
		link := fmt.Sprintf("%s?page=%d&limit=%d", baseURL, result.PrevPage, result.Limit)
		prevLink = &link
	}
	if result.HasNext {
		link := fmt.Sprintf("%s?page=%d&limit=%d", baseURL, result.NextPage, result.Limit)
		nextLink = &link
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "success",
		"payload":     result.Docs,
		"totalPages":  result.TotalPages,
		"prevPage":    result.PrevPage,
		"nextPage":    result.NextPage,
		"page":        result.Page,
		"hasPrevPage": result.HasPrev,
		"hasNextPage": result.HasNext,
		"prevLink":    prevLink,
		"nextLink":    nextLink,
	})
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("pid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": product})
}

func (h *Handler) createProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "payload": product})
}

func (h *Handler) updateProduct(c *gin.Context) {
	var update map[string]interface{}
	if err := c.ShouldBindJSON(&update); err != nil {
		respondBadRequest(c, err)
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), c.Param("pid"), update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": product})
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("pid")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Product deleted"})
}

func (h *Handler) adjustStock(c *gin.Context) {
	var req struct {
		Delta int `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	product, err := h.catalog.AdjustStock(c.Request.Context(), c.Param("pid"), req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": product})
}

// --- carts ---

func (h *Handler) createCart(c *gin.Context) {
	cart, err := h.carts.CreateCart(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "Cart created", "payload": cart})
}

func (h *Handler) getCart(c *gin.Context) {
	cart, err := h.carts.GetCart(c.Request.Context(), c.Param("cid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"payload":      cart,
		"cartSubtotal": cart.Subtotal,
	})
}

func (h *Handler) addProductToCart(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBadRequest(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := h.carts.AddProduct(c.Request.Context(), c.Param("cid"), c.Param("pid"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Product added to cart", "payload": cart})
}

func (h *Handler) updateCartQuantity(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	cart, err := h.carts.SetQuantity(c.Request.Context(), c.Param("cid"), c.Param("pid"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Quantity updated", "payload": cart})
}

func (h *Handler) removeProductFromCart(c *gin.Context) {
	cart, err := h.carts.RemoveProduct(c.Request.Context(), c.Param("cid"), c.Param("pid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Product removed from cart", "payload": cart})
}

func (h *Handler) replaceCartItems(c *gin.Context) {
	var req struct {
		Items []struct {
			Product  string `json:"product" binding:"required"`
			Quantity int    `json:"quantity" binding:"required,min=1"`
		} `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	items := make([]models.CartItem, len(req.Items))
	for i, item := range req.Items {
		oid, err := primitive.ObjectIDFromHex(item.Product)
		if err != nil {
			respondBadRequest(c, fmt.Errorf("invalid product id %q", item.Product))
			return
		}
		items[i] = models.CartItem{Product: oid, Quantity: item.Quantity}
	}

	if err := h.carts.ReplaceItems(c.Request.Context(), c.Param("cid"), items); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Cart updated"})
}

func (h *Handler) clearCart(c *gin.Context) {
	if err := h.carts.ClearCart(c.Request.Context(), c.Param("cid")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Cart cleared"})
}

// --- purchase & tickets ---

func (h *Handler) purchase(c *gin.Context) {
	user := currentUser(c)

	result, err := h.purchases.ProcessPurchase(c.Request.Context(), c.Param("cid"), user.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Purchase completed successfully"
	if !result.Completed {
		message = "Purchase partially completed, some products lacked sufficient stock"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":              "success",
		"message":             message,
		"ticket":              result.Ticket,
		"productsAvailable":   result.FulfilledCount,
		"productsUnavailable": result.UnfulfilledCount,
		"totalAmount":         result.TotalAmount,
		"completed":           result.Completed,
	})
}

func (h *Handler) getUserTickets(c *gin.Context) {
	user := currentUser(c)

	tickets, err := h.purchases.GetUserTickets(c.Request.Context(), user.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": tickets})
}

func (h *Handler) getTicket(c *gin.Context) {
	user := currentUser(c)

	ticket, err := h.purchases.GetTicketByID(c.Request.Context(), c.Param("tid"))
	if err != nil {
		respondError(c, err)
		return
	}

	if user.Role != models.RoleAdmin && ticket.Purchaser != user.Email {
		c.JSON(http.StatusForbidden, gin.H{
			"status":  "error",
			"message": "You do not have permission to view this ticket",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "ticket": ticket})
}

// --- helpers ---

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status":  "error",
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

// respondError maps domain errors to the response envelope
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrCartNotFound),
		errors.Is(err, models.ErrProductNotFound),
		errors.Is(err, models.ErrTicketNotFound),
		errors.Is(err, models.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrEmptyCart),
		errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrInvalidID),
		errors.Is(err, models.ErrSamePassword):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrDuplicateCode),
		errors.Is(err, models.ErrDuplicateEmail),
		errors.Is(err, models.ErrInsufficientStock):
		status = http.StatusConflict
	case errors.Is(err, models.ErrInvalidCredentials),
		errors.Is(err, models.ErrInvalidToken):
		status = http.StatusUnauthorized
	}

	body := gin.H{"status": "error", "message": err.Error()}
	if status == http.StatusInternalServerError {
		body["message"] = "Unexpected error"
		body["error"] = err.Error()
	}
	c.JSON(status, body)
}

func requestScheme(c *gin.Context) string {
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}
