package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PrintStatus represents the outcome of a print job
type PrintStatus string

const (
	StatusPrinted PrintStatus = "PRINTED"
	StatusFailed  PrintStatus = "FAILED"
	StatusPending PrintStatus = "PENDING"
)

// PrintRequest represents a request to print a receipt
type PrintRequest struct {
	JobID         string `json:"job_id" binding:"required"`
	InvoiceNumber string `json:"invoice_number" binding:"required"`
	ArtifactPath  string `json:"artifact_path"`
	Copies        int    `json:"copies"`
}

// PrintResponse represents the response from a print job
type PrintResponse struct {
	JobID         string      `json:"job_id"`
	InvoiceNumber string      `json:"invoice_number"`
	Status        PrintStatus `json:"status"`
	PrintedAt     *time.Time  `json:"printed_at,omitempty"`
	ErrorCode     string      `json:"error_code,omitempty"`
	ErrorMsg      string      `json:"error_msg,omitempty"`
	PrinterID     string      `json:"printer_id"`
	ProcessedAt   time.Time   `json:"processed_at"`
}

// StatusCheckResponse represents a job status response
type StatusCheckResponse struct {
	JobID     string      `json:"job_id"`
	Status    PrintStatus `json:"status"`
	PrintedAt *time.Time  `json:"printed_at,omitempty"`
	ErrorCode string      `json:"error_code,omitempty"`
	ErrorMsg  string      `json:"error_msg,omitempty"`
	PrinterID string      `json:"printer_id"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status      string    `json:"status"`
	PrinterID   string    `json:"printer_id"`
	Timestamp   time.Time `json:"timestamp"`
	SuccessRate float64   `json:"success_rate"`
}

// MockPrinter simulates a thermal receipt printer station
type MockPrinter struct {
	successRate float64
	minDelay    time.Duration
	maxDelay    time.Duration
	printerID   string
	rng         *rand.Rand
}

// NewMockPrinter creates a new mock printer instance
func NewMockPrinter(successRate float64, minDelay, maxDelay time.Duration) *MockPrinter {
	return &MockPrinter{
		successRate: successRate,
		minDelay:    minDelay,
		maxDelay:    maxDelay,
		printerID:   "MOCK_PRINTER_" + uuid.New().String()[:8],
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// simulatePrint simulates feeding a receipt through the printer
func (m *MockPrinter) simulatePrint(req *PrintRequest) *PrintResponse {
	// Calculate delay
	delay := m.randomDelay()

	// Each extra copy takes its own pass through the printer
	copies := req.Copies
	if copies < 1 {
		copies = 1
	}
	delay = delay * time.Duration(copies)

	// Simulate the mechanical feed
	time.Sleep(delay)

	response := &PrintResponse{
		JobID:         req.JobID,
		InvoiceNumber: req.InvoiceNumber,
		PrinterID:     m.printerID,
		ProcessedAt:   time.Now(),
	}

	// Determine success or failure
	if m.shouldSucceed() {
		now := time.Now()
		response.Status = StatusPrinted
		response.PrintedAt = &now

		log.Info().
			Str("job_id", req.JobID).
			Str("invoice", req.InvoiceNumber).
			Int("copies", copies).
			Dur("delay", delay).
			Msg("Receipt printed successfully")
	} else {
		response.Status = StatusFailed
		response.ErrorCode = m.randomErrorCode()
		response.ErrorMsg = m.errorMessage(response.ErrorCode)

		log.Warn().
			Str("job_id", req.JobID).
			Str("invoice", req.InvoiceNumber).
			Str("error_code", response.ErrorCode).
			Msg("Receipt print failed")
	}

	return response
}

func (m *MockPrinter) randomDelay() time.Duration {
	delta := m.maxDelay - m.minDelay
	randomDelta := time.Duration(m.rng.Int63n(int64(delta)))
	return m.minDelay + randomDelta
}

func (m *MockPrinter) shouldSucceed() bool {
	return m.rng.Float64() < m.successRate
}

func (m *MockPrinter) randomErrorCode() string {
	errorCodes := []string{
		"OUT_OF_PAPER",
		"PAPER_JAM",
		"COVER_OPEN",
		"OVERHEATED",
		"OFFLINE",
	}
	return errorCodes[m.rng.Intn(len(errorCodes))]
}

func (m *MockPrinter) errorMessage(code string) string {
	messages := map[string]string{
		"OUT_OF_PAPER": "The printer has run out of paper",
		"PAPER_JAM":    "Paper is jammed in the feed mechanism",
		"COVER_OPEN":   "The printer cover is open",
		"OVERHEATED":   "The print head is overheated",
		"OFFLINE":      "The printer is offline",
	}

	if msg, ok := messages[code]; ok {
		return msg
	}
	return "Unknown error occurred"
}

// Handler struct holds the mock printer and routes
type Handler struct {
	printer *MockPrinter
}

func NewHandler(printer *MockPrinter) *Handler {
	return &Handler{printer: printer}
}

// Print handles single receipt print requests
func (h *Handler) Print(c *gin.Context) {
	var req PrintRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	log.Info().
		Str("job_id", req.JobID).
		Str("invoice", req.InvoiceNumber).
		Int("copies", req.Copies).
		Msg("Received print request")

	response := h.printer.simulatePrint(&req)

	statusCode := http.StatusOK
	if response.Status == StatusFailed {
		statusCode = http.StatusAccepted // 202: accepted but failed to print
	}

	c.JSON(statusCode, response)
}

// GetStatus handles print job status check requests
func (h *Handler) GetStatus(c *gin.Context) {
	jobID := c.Param("job_id")

	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id is required",
		})
		return
	}

	// Simulate API delay
	time.Sleep(100 * time.Millisecond)

	// For demo, return random status
	response := StatusCheckResponse{
		JobID:     jobID,
		PrinterID: h.printer.printerID,
	}

	if h.printer.shouldSucceed() {
		now := time.Now()
		response.Status = StatusPrinted
		response.PrintedAt = &now
	} else {
		response.Status = StatusFailed
		response.ErrorCode = "OUT_OF_PAPER"
		response.ErrorMsg = "The printer has run out of paper"
	}

	c.JSON(http.StatusOK, response)
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(c *gin.Context) {
	// Simulate 5% downtime
	if h.printer.rng.Float64() < 0.05 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "Printer temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:      "healthy",
		PrinterID:   h.printer.printerID,
		Timestamp:   time.Now(),
		SuccessRate: h.printer.successRate,
	})
}

// UpdateConfig allows changing printer configuration at runtime
func (h *Handler) UpdateConfig(c *gin.Context) {
	var config struct {
		SuccessRate *float64 `json:"success_rate"`
	}

	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if config.SuccessRate != nil {
		if *config.SuccessRate >= 0 && *config.SuccessRate <= 1.0 {
			h.printer.successRate = *config.SuccessRate
			log.Info().Float64("rate", *config.SuccessRate).Msg("Updated success rate")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Configuration updated",
		"success_rate": h.printer.successRate,
	})
}

// SetupRouter configures all routes
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	// Add request logging middleware
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/print", handler.Print)
		v1.GET("/print/status/:job_id", handler.GetStatus)
		v1.GET("/health", handler.HealthCheck)
		v1.PUT("/config", handler.UpdateConfig)
	}

	// Root health check
	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Get configuration from environment
	port := getEnv("PORT", "8082")
	successRate := getEnvFloat("SUCCESS_RATE", 1)
	minDelay := getEnvDuration("MIN_DELAY", 200*time.Millisecond)
	maxDelay := getEnvDuration("MAX_DELAY", 2*time.Second)

	log.Info().
		Str("port", port).
		Float64("success_rate", successRate).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Msg("Starting Mock Receipt Printer")

	// Create mock printer
	printer := NewMockPrinter(successRate, minDelay, maxDelay)
	handler := NewHandler(printer)
	router := SetupRouter(handler)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
