package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/askcampus/internal/app"
	"github.com/mohammad-safakhou/askcampus/internal/store"
	"github.com/mohammad-safakhou/askcampus/models"
	"go.uber.org/zap"
)

// Service is the research backend the HTTP API exposes.
type Service interface {
	Ask(ctx context.Context, query string, opts app.AskOptions) (app.Answer, error)
	Get(ctx context.Context, id string) (models.ResearchResult, error)
	List(ctx context.Context, limit int) ([]models.ResearchResult, error)
}

type ResearchRequest struct {
	Query     string   `json:"query"`
	Threshold *float64 `json:"threshold,omitempty"`
	MaxPages  int      `json:"max_pages,omitempty"`
}

type ResearchResponse struct {
	ID          string            `json:"id"`
	Query       string            `json:"query"`
	State       string            `json:"state"`
	FinalAnswer string            `json:"final_answer"`
	Sources     []models.Source   `json:"sources"`
	Files       map[string]string `json:"files,omitempty"`
}

type ResearchHandler struct {
	svc    Service
	logger *zap.Logger
}

func (h *ResearchHandler) Register(g *echo.Group) {
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
}

func (h *ResearchHandler) create(c echo.Context) error {
	var req ResearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	opts := app.AskOptions{Threshold: req.Threshold, MaxPages: req.MaxPages}
	if err := opts.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ans, err := h.svc.Ask(c.Request().Context(), req.Query, opts)
	if errors.Is(err, app.ErrEmptyQuery) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		h.logger.Error("research failed", zap.String("query", req.Query), zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	r := ans.Result
	return c.JSON(http.StatusOK, ResearchResponse{
		ID:          r.ID,
		Query:       r.Query,
		State:       string(r.State),
		FinalAnswer: r.FinalAnswer,
		Sources:     r.Sources,
		Files:       ans.Files,
	})
}

func (h *ResearchHandler) get(c echo.Context) error {
	r, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "research result not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

func (h *ResearchHandler) list(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}
	results, err := h.svc.List(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	out := make([]ResearchResponse, 0, len(results))
	for _, r := range results {
		out = append(out, ResearchResponse{
			ID:          r.ID,
			Query:       r.Query,
			State:       string(r.State),
			FinalAnswer: r.FinalAnswer,
			Sources:     r.Sources,
		})
	}
	return c.JSON(http.StatusOK, out)
}
