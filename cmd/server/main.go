package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/yourorg/booking-orchestrator/internal/bookeo"
	"github.com/yourorg/booking-orchestrator/internal/config"
	"github.com/yourorg/booking-orchestrator/internal/monitor"
	"github.com/yourorg/booking-orchestrator/internal/orchestrator"
	"github.com/yourorg/booking-orchestrator/internal/payu"
	"github.com/yourorg/booking-orchestrator/internal/reconciler"
	"github.com/yourorg/booking-orchestrator/internal/result"
	"github.com/yourorg/booking-orchestrator/internal/upstream"
)

type app struct {
	bookings    *bookeo.Client
	orch        *orchestrator.Orchestrator
	rec         *reconciler.Reconciler
	holdMonitor *monitor.ContractMonitor
	webhookSalt string
}

func newApp(cfg config.Config) (*app, error) {
	breaker := upstream.NewBreaker()
	bookings := bookeo.NewClient(cfg.BookeoBaseURL, cfg.BookeoAPIKey, cfg.BookeoSecretKey, bookeo.WithBreaker(breaker))
	links := payu.NewClient(cfg.PayuBaseURL, cfg.PayuMerchantKey, cfg.PayuAuthHeader, payu.WithBreaker(breaker))

	holdMonitor, err := monitor.NewContractMonitor(monitor.HoldRequestSchema)
	if err != nil {
		return nil, fmt.Errorf("compiling hold request schema: %w", err)
	}

	return &app{
		bookings:    bookings,
		orch:        orchestrator.New(bookings, links),
		rec:         reconciler.New(bookings, cfg.HomeCurrency),
		holdMonitor: holdMonitor,
		webhookSalt: cfg.PayuWebhookSalt,
	}, nil
}

// createHoldHandler runs the hold + payment-link workflow.
func (a *app) createHoldHandler(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, result.Failure(result.SourceInternal, http.StatusBadRequest, "cannot read request body"))
		return
	}

	valid, validationErrs, err := a.holdMonitor.Validate(body)
	if err != nil || !valid {
		msg := monitor.FormatErrors(validationErrs)
		if msg == "" && err != nil {
			msg = err.Error()
		}
		c.JSON(http.StatusBadRequest, result.Failure(result.SourceInternal, http.StatusBadRequest, msg))
		return
	}

	var req orchestrator.HoldRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, result.Failure(result.SourceInternal, http.StatusBadRequest, "invalid request format: "+err.Error()))
		return
	}

	res := a.orch.CreateHoldAndPaymentLink(c.Request.Context(), req)
	status := http.StatusOK
	if !res.Success && res.HTTPStatus == http.StatusBadRequest {
		status = http.StatusBadRequest
	}
	c.JSON(status, res)
}

// webhookHandler receives payment-gateway notifications. It always
// answers HTTP 200: gateways treat non-2xx as undelivered and retry,
// and a business-logic rejection here is not a transport failure.
func (a *app) webhookHandler(c *gin.Context) {
	payload, err := decodeWebhookPayload(c)
	if err != nil {
		c.JSON(http.StatusOK, result.Failure(result.SourcePayu, http.StatusBadRequest, "cannot decode webhook payload: "+err.Error()))
		return
	}

	if a.webhookSalt != "" && !reconciler.VerifyHash(payload, a.webhookSalt) {
		c.JSON(http.StatusOK, result.Failure(result.SourcePayu, http.StatusBadRequest, "webhook hash verification failed"))
		return
	}

	c.JSON(http.StatusOK, a.rec.CreateBookingAfterPayment(c.Request.Context(), payload))
}

// decodeWebhookPayload flattens the notification into string key-values,
// accepting both the gateway's form encoding and JSON re-deliveries.
func decodeWebhookPayload(c *gin.Context) (map[string]string, error) {
	payload := make(map[string]string)

	if strings.Contains(c.ContentType(), "json") {
		var raw map[string]interface{}
		if err := c.ShouldBindJSON(&raw); err != nil {
			return nil, err
		}
		for k, v := range raw {
			switch val := v.(type) {
			case string:
				payload[k] = val
			case float64:
				payload[k] = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", val), "0"), ".")
			case nil:
			default:
				b, _ := json.Marshal(val)
				payload[k] = string(b)
			}
		}
		return payload, nil
	}

	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	for k, vs := range c.Request.PostForm {
		if len(vs) > 0 {
			payload[k] = vs[0]
		}
	}
	return payload, nil
}

// matchingSlotsHandler is a thin availability passthrough.
func (a *app) matchingSlotsHandler(c *gin.Context) {
	var participants []bookeo.Participant
	if raw := c.Query("participants"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &participants); err != nil {
			c.JSON(http.StatusBadRequest, result.Failure(result.SourceInternal, http.StatusBadRequest, "participants must be a JSON array"))
			return
		}
	}

	slots, err := a.bookings.GetMatchingSlots(c.Request.Context(),
		c.Query("startTime"), c.Query("endTime"), c.Query("productId"), participants, c.Query("lang"))
	if err != nil {
		c.JSON(http.StatusBadGateway, result.Normalize(err, result.SourceBookeo))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": slots})
}

// recoveryMiddleware converts panics into the normalized internal-error
// envelope instead of gin's plain 500.
func recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("panic recovered: %v", r)
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					result.Failure(result.SourceInternal, http.StatusInternalServerError, fmt.Sprintf("%v", r)))
			}
		}()
		c.Next()
	}
}

func setupRouter(a *app) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), recoveryMiddleware(), otelgin.Middleware("booking-orchestrator"))

	router.POST("/bookeo/holds", a.createHoldHandler)
	router.GET("/bookeo/slots", a.matchingSlotsHandler)
	router.POST("/payu/webhook", a.webhookHandler)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

func initTracer() (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp, nil
}

func main() {
	cfg := config.Load()

	tp, err := initTracer()
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	a, err := newApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	log.Println("Starting server...")
	router := setupRouter(a)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
