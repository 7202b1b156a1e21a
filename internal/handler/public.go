// Package handler exposes the HTTP handlers of the public read API and the
// admin endpoints.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tricket/internal/model"
	"github.com/iliyamo/tricket/internal/service"
)

// PublicHandler serves productions and tags to unauthenticated clients.
type PublicHandler struct {
	Tricket *service.Tricket
}

// PublicProduction is a production with its public page address and the
// screenings that have not started yet.
type PublicProduction struct {
	model.Production
	URL      string            `json:"url"`
	Upcoming []model.Screening `json:"upcomingScreenings"`
}

func (h *PublicHandler) present(p model.Production) PublicProduction {
	return PublicProduction{
		Production: p,
		URL:        h.Tricket.ProductionURL(p),
		Upcoming:   p.CurrentScreenings(h.Tricket.Now()),
	}
}

// ListProductions returns every production, optionally narrowed by
// ?tag=ID, ?tag_name=NAME, ?tags=a,b (any of) or ?all_tags=a,b. Only the
// first filter present is applied, in that order.
func (h *PublicHandler) ListProductions(c echo.Context) error {
	ctx := c.Request().Context()
	var list []model.Production
	switch {
	case c.QueryParam("tag") != "":
		list = h.Tricket.GetProductionsByTagID(ctx, c.QueryParam("tag"))
	case c.QueryParam("tag_name") != "":
		list = h.Tricket.GetProductionsByTagName(ctx, c.QueryParam("tag_name"))
	case c.QueryParam("tags") != "":
		list = h.Tricket.GetProductionsByTagIDs(ctx, splitList(c.QueryParam("tags")))
	case c.QueryParam("all_tags") != "":
		list = h.Tricket.GetProductionsWithAllTags(ctx, splitList(c.QueryParam("all_tags")))
	default:
		list = h.Tricket.GetProductions(ctx)
	}
	out := make([]PublicProduction, 0, len(list))
	for _, p := range list {
		out = append(out, h.present(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetProduction returns the production with the id in the path.
func (h *PublicHandler) GetProduction(c echo.Context) error {
	p, ok := h.Tricket.GetProductionByID(c.Request().Context(), c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "production not found"})
	}
	return c.JSON(http.StatusOK, h.present(p))
}

// GetProductionByTitle resolves the title slug used in public page URLs.
func (h *PublicHandler) GetProductionByTitle(c echo.Context) error {
	p, ok := h.Tricket.GetProductionByTitle(c.Request().Context(), c.Param("slug"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "production not found"})
	}
	return c.JSON(http.StatusOK, h.present(p))
}

// ListTags returns the distinct tags of all productions, sorted by name.
func (h *PublicHandler) ListTags(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"items": h.Tricket.GetAllTags(c.Request().Context())})
}

// GetTag returns one tag by id.
func (h *PublicHandler) GetTag(c echo.Context) error {
	tag, ok := h.Tricket.GetTagByID(c.Request().Context(), c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tag not found"})
	}
	return c.JSON(http.StatusOK, tag)
}
