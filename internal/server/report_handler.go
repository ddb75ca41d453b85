package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/balkashynov/nannyclock/internal/report"
	"github.com/balkashynov/nannyclock/internal/server/response"
)

// ReportGenerator is implemented by report.Generator.
type ReportGenerator interface {
	Generate(ctx context.Context) ([]report.Summary, error)
}

type ReportHandler struct {
	generator ReportGenerator
	logger    *slog.Logger
}

func NewReportHandler(generator ReportGenerator, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{generator: generator, logger: logger}
}

// SendReport generates the weekly reports of all employer/nanny pairs.
func (h *ReportHandler) SendReport(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.generator.Generate(r.Context())
	if err != nil {
		h.logger.Error("error generating reports", "err", err)
		response.HandleError(w, err, "Failed to generate reports")
		return
	}
	response.SuccessWithMessage(w, fmt.Sprintf("%d report(s) generated", len(summaries)), summaries)
}

// Health answers the unauthenticated GET on the report endpoint.
func (h *ReportHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"endpoint": "send-report",
	})
}
