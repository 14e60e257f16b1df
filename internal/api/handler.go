package api

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/bank-statement-parser/internal/buildinfo"
	"github.com/insightdelivered/bank-statement-parser/internal/extractor"
	"github.com/insightdelivered/bank-statement-parser/internal/logger"
	"github.com/insightdelivered/bank-statement-parser/internal/models"
	"github.com/insightdelivered/bank-statement-parser/internal/parser"
	"github.com/insightdelivered/bank-statement-parser/internal/writer"
)

// RequestIDHeader carries the ID assigned to every request.
const RequestIDHeader = "X-Request-ID"

// ParseResponse is the JSON response from the /api/parse endpoint.
type ParseResponse struct {
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	ErrorKind string            `json:"errorKind,omitempty"`
	RequestID string            `json:"requestId"`
	Statement *models.Statement `json:"statement,omitempty"`
	CSV       string            `json:"csv,omitempty"`
	Count     int               `json:"count"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	engine *parser.Engine
	log    zerolog.Logger
}

// NewHandler returns handlers parsing with engine.
func NewHandler(engine *parser.Engine, log zerolog.Logger) *Handler {
	return &Handler{engine: engine, log: log}
}

// NewApp sets up the fiber app with all routes. Metrics are served from
// gatherer if it is not nil.
func NewApp(h *Handler, gatherer prometheus.Gatherer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "stan",
		BodyLimit:    32 << 20,
		ErrorHandler: h.handleError,
	})

	app.Use(h.requestID)
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/parse", h.HandleParse)
	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return app
}

// requestID assigns every request an ID and a logger carrying it.
func (h *Handler) requestID(c *fiber.Ctx) error {
	id := c.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Locals("requestId", id)
	c.Set(RequestIDHeader, id)

	log := logger.ForRequest(h.log, id)
	c.SetUserContext(log.WithContext(c.UserContext()))
	return c.Next()
}

func requestIDOf(c *fiber.Ctx) string {
	id, _ := c.Locals("requestId").(string)
	return id
}

// HandleHealth reports that the server is up.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": buildinfo.Version,
	})
}

// HandleParse parses an uploaded statement. The form carries either a PDF in
// field "file" or already extracted text in "extractedText". Text without
// a PDF needs the "bank" field, as there is no metadata to detect the
// dialect from.
func (h *Handler) HandleParse(c *fiber.Ctx) error {
	log := zerolog.Ctx(c.UserContext())

	bank := c.FormValue("bank")
	includeHeader := c.FormValue("header") != "false"
	extractedText := c.FormValue("extractedText")

	options := map[string]string{}
	if bank != "" {
		options[parser.OptionBank] = bank
	}

	fh, err := c.FormFile("file")
	if err != nil && extractedText == "" {
		return h.writeError(c, fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.", nil)
	}

	var pdfPath, filename string
	if fh != nil {
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
			return h.writeError(c, fiber.StatusBadRequest, "Only PDF files are supported.", nil)
		}

		tmp, err := os.CreateTemp("", "statement-*.pdf")
		if err != nil {
			return fmt.Errorf("creating temp file: %w", err)
		}
		tmp.Close()
		defer os.Remove(tmp.Name())

		if err := c.SaveFile(fh, tmp.Name()); err != nil {
			return fmt.Errorf("saving uploaded file: %w", err)
		}
		pdfPath, filename = tmp.Name(), filepath.Base(fh.Filename)
	}

	var st *models.Statement
	if extractedText != "" {
		doc := &models.Document{Filename: filename, Lines: extractor.SplitLines(extractedText)}
		if doc.Filename == "" {
			doc.Filename = "extracted.txt"
		}
		if pdfPath != "" {
			// Metadata is still needed for dialect detection.
			if meta, err := extractor.ReadMetadata(pdfPath); err == nil {
				doc.Metadata = meta
			}
		}
		st, err = h.engine.ParseDocument(doc, options)
	} else {
		st, err = h.engine.ParseFile(pdfPath, options)
		if st != nil {
			st.Filename = filename
		}
	}
	if err != nil {
		log.Warn().Err(err).Str(logger.FieldFile, filename).Msg("parsing failed")
		return h.writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("Parsing failed: %v", err), err)
	}

	var csvBuf bytes.Buffer
	csvWriter := &writer.CSVWriter{IncludeHeader: includeHeader}
	if err := csvWriter.Write(&csvBuf, st); err != nil {
		return fmt.Errorf("CSV generation failed: %w", err)
	}

	log.Info().Str(logger.FieldFile, st.Filename).Int("bookings", len(st.Bookings)).Msg("statement parsed")

	return c.JSON(ParseResponse{
		Success:   true,
		RequestID: requestIDOf(c),
		Statement: st,
		CSV:       csvBuf.String(),
		Count:     len(st.Bookings),
	})
}

func (h *Handler) writeError(c *fiber.Ctx, status int, msg string, cause error) error {
	return c.Status(status).JSON(ParseResponse{
		Success:   false,
		Error:     msg,
		ErrorKind: errorKind(cause),
		RequestID: requestIDOf(c),
	})
}

func (h *Handler) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	log := logger.ForRequest(h.log, requestIDOf(c))
	log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return h.writeError(c, status, err.Error(), nil)
}

func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, parser.ErrUnrecognizedDialect):
		return "unrecognized"
	case parser.IsStructural(err):
		return parser.KindStructural.String()
	case parser.IsSanityCheck(err):
		return parser.KindSanityCheck.String()
	default:
		return "extraction"
	}
}
