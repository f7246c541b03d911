package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/shanthaneddula/zsmokeshop-sub001/internal/apperr"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/lifecycle"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/orders"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/substitution"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/validation"
)

// HandlerConfig groups dependencies for the order routes.
type HandlerConfig struct {
	Lifecycle            *lifecycle.Service
	Substitution         *substitution.Service
	DefaultStoreLocation string
}

// RegisterOrderRoutes wires the pickup-order API onto the router.
func RegisterOrderRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	// Consumed by checkout.
	r.POST("/orders", createOrder(cfg, v))

	// Customer-facing tracking lookup; compound key, uniform not-found.
	r.GET("/orders/track", trackOrder(cfg))

	// Inbound reply relay from either channel's provider.
	r.POST("/webhooks/replies", inboundReply(cfg, v))

	// Staff commands. Authentication lives on the gateway in front of this
	// service, not here.
	admin := r.Group("/admin")
	admin.GET("/orders", listOrders(cfg))
	admin.GET("/orders/:orderId", getOrder(cfg))
	admin.POST("/orders/:orderId/confirm", transitionHandler(cfg.Lifecycle.Confirm))
	admin.POST("/orders/:orderId/ready", transitionHandler(cfg.Lifecycle.MarkReady))
	admin.POST("/orders/:orderId/pickup", transitionHandler(cfg.Lifecycle.MarkPickedUp))
	admin.POST("/orders/:orderId/no-show", transitionHandler(cfg.Lifecycle.MarkNoShow))
	admin.POST("/orders/:orderId/cancel", transitionHandler(cfg.Lifecycle.Cancel))
	admin.POST("/orders/:orderId/substitution", suggestReplacement(cfg, v))
}

func createOrder(cfg HandlerConfig, v *validatorv10.Validate) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req validation.CreateOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		location := req.StoreLocation
		if location == "" {
			location = cfg.DefaultStoreLocation
		}

		items := make([]lifecycle.LineItemInput, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, lifecycle.LineItemInput{
				ProductID:             it.ProductID,
				ProductName:           it.ProductName,
				Quantity:              it.Quantity,
				PricePerUnit:          it.PricePerUnit,
				ReplacementPreference: orders.ReplacementPreference(it.ReplacementPreference),
			})
		}

		o, err := cfg.Lifecycle.Create(c.Request.Context(), lifecycle.CreateOrderInput{
			CustomerName:       req.CustomerName,
			CustomerPhone:      req.CustomerPhone,
			CustomerEmail:      req.CustomerEmail,
			NotificationMethod: orders.NotificationMethod(req.NotificationMethod),
			StoreLocation:      location,
			Items:              items,
		})
		if err != nil {
			writeError(c, err)
			return
		}

		c.Header("Location", "/admin/orders/"+o.OrderID)
		c.JSON(http.StatusCreated, o)
	}
}

func trackOrder(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		number := c.Query("number")
		contact := c.Query("contact")
		if number == "" || contact == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_number_or_contact"})
			return
		}

		o, err := cfg.Lifecycle.Track(c.Request.Context(), number, contact)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func listOrders(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := orders.Status(c.Query("status"))
		switch status {
		case orders.StatusPending, orders.StatusConfirmed, orders.StatusReady,
			orders.StatusPickedUp, orders.StatusNoShow, orders.StatusCancelled:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status"})
			return
		}

		list, err := cfg.Lifecycle.ListByStatus(c.Request.Context(), status)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func getOrder(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := cfg.Lifecycle.Get(c.Request.Context(), c.Param("orderId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func transitionHandler(op func(ctx context.Context, orderID string) (*orders.Order, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := op(c.Request.Context(), c.Param("orderId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func suggestReplacement(cfg HandlerConfig, v *validatorv10.Validate) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req validation.SuggestReplacementRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		o, err := cfg.Substitution.Suggest(c.Request.Context(), substitution.SuggestInput{
			OrderID:                c.Param("orderId"),
			OriginalProductID:      req.OriginalProductID,
			ReplacementProductID:   req.ReplacementProductID,
			ReplacementProductName: req.ReplacementProductName,
			Note:                   req.Note,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func inboundReply(cfg HandlerConfig, v *validatorv10.Validate) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req validation.InboundReplyRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		o, reply, err := cfg.Substitution.HandleReply(c.Request.Context(), req.From, req.Body)
		if errors.Is(err, apperr.ErrNoPendingReply) {
			// Ack anyway or the provider keeps retrying a message we can
			// never attach to anything.
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "recorded",
			"reply":       reply.String(),
			"orderNumber": o.OrderNumber,
		})
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{
		"error": apperr.Kind(err),
		"msg":   err.Error(),
	})
}
