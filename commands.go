package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Aashish23092/travel-document-verification/client"
	"github.com/Aashish23092/travel-document-verification/config"
	"github.com/Aashish23092/travel-document-verification/dto"
	"github.com/Aashish23092/travel-document-verification/handler"
	"github.com/Aashish23092/travel-document-verification/metrics"
	"github.com/Aashish23092/travel-document-verification/middleware"
	"github.com/Aashish23092/travel-document-verification/service"
)

func serviceOptions(c *config.Config) service.Options {
	return service.Options{
		DocumentTimeout: c.Verification.DocumentTimeout,
		RequestBudget:   c.Verification.RequestBudget,
		MaxConcurrent:   c.Verification.MaxConcurrentDocuments,
	}
}

func newOCREngine(c *config.Config) client.OCREngine {
	if c.OCR.Engine == config.EnginePaddle {
		return client.NewPaddleClient(c.OCR.PaddleURL)
	}
	return client.NewTesseractClient(c.OCR.TessdataPrefix, c.OCR.Language)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP verification service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, c *config.Config) error {
	policy, err := config.LoadPolicy(c.Policy.File)
	if err != nil {
		return err
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	verificationService := service.NewVerificationService(serviceOptions(c), m)
	documentReader := service.NewDocumentReader(newOCREngine(c), client.NewBarcodeClient(), service.NewPDFProcessor(), m)
	verificationHandler := handler.NewVerificationHandler(verificationService, documentReader, policy)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Recovery(), middleware.RequestLogger())
	router.MaxMultipartMemory = c.Server.MaxUploadMB << 20

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Travel Document Verification",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	verificationHandler.RegisterRoutes(router.Group("/api/v1"))

	srv := &http.Server{
		Addr:              ":" + c.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting travel document verification service", "port", c.Server.Port, "ocr_engine", c.OCR.Engine)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func evaluateCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate pre-recognised documents from a JSON request",
		Long: `Reads a request of the form {"documents": [...], "applicant": {...}, "policy": {...}}
and prints the verification response as JSON. Use --input - to read stdin.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return evaluate(cmd.Context(), cfg, input, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "request JSON file, - for stdin")
	return cmd
}

func evaluate(ctx context.Context, c *config.Config, input string, stdin io.Reader, out io.Writer) error {
	r := stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var request dto.EvaluateRequest
	if err := json.NewDecoder(r).Decode(&request); err != nil {
		return fmt.Errorf("failed to decode request: %w", err)
	}
	if err := request.Validate(); err != nil {
		return err
	}

	base, err := config.LoadPolicy(c.Policy.File)
	if err != nil {
		return err
	}
	policy, err := dto.ParsePolicyJSON(request.Policy, base)
	if err != nil {
		return err
	}

	response := service.NewVerificationService(serviceOptions(c), nil).
		EvaluateDocuments(ctx, request.Documents, request.Applicant, &policy)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(response)
}
