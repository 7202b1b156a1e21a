package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/tricket/internal/model"
	"github.com/iliyamo/tricket/internal/queue"
	"github.com/iliyamo/tricket/internal/schedule"
)

// Tricket is the query surface over the production list: lookups, tag
// queries and schedules. Every call reads through the API client, so a
// warm cache serves all of them without a remote request.
type Tricket struct {
	api             *APIClient
	homeURL         string
	productionsSlug string
	clock           schedule.Clock
	loc             *time.Location
}

// Option customizes a Tricket.
type Option func(*Tricket)

// WithHomeURL sets the site root used by ProductionURL.
func WithHomeURL(u string) Option {
	return func(t *Tricket) { t.homeURL = u }
}

// WithProductionsSlug sets the path segment under which productions live.
func WithProductionsSlug(slug string) Option {
	return func(t *Tricket) {
		if slug != "" {
			t.productionsSlug = slug
		}
	}
}

// WithClock sets the clock handed to every schedule built by GetSchedule.
func WithClock(c schedule.Clock) Option {
	return func(t *Tricket) { t.clock = c }
}

// WithLocation sets the zone in which schedules evaluate "today".
func WithLocation(loc *time.Location) Option {
	return func(t *Tricket) { t.loc = loc }
}

// NewTricket wraps api.
func NewTricket(api *APIClient, opts ...Option) *Tricket {
	t := &Tricket{
		api:             api,
		productionsSlug: model.DefaultProductionsSlug,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Now reads the facade's clock, or the wall clock when none is set.
func (t *Tricket) Now() time.Time {
	if t.clock == nil {
		return time.Now()
	}
	return t.clock.Now()
}

// GetProductions returns every production, empty on any upstream failure.
func (t *Tricket) GetProductions(ctx context.Context) []model.Production {
	return t.api.GetProductions(ctx)
}

// GetProductionByID returns the production with exactly this id.
func (t *Tricket) GetProductionByID(ctx context.Context, id string) (model.Production, bool) {
	return t.api.GetProductionByID(ctx, id)
}

// GetProductionByTitle finds the production whose title slug equals slug.
func (t *Tricket) GetProductionByTitle(ctx context.Context, slug string) (model.Production, bool) {
	for _, p := range t.GetProductions(ctx) {
		if p.Slug() == slug {
			return p, true
		}
	}
	return model.Production{}, false
}

// ProductionURL is the public page of p.
func (t *Tricket) ProductionURL(p model.Production) string {
	return p.URL(t.homeURL, t.productionsSlug)
}

// GetSchedule indexes the current production list. Options are applied
// after the facade's own clock and location.
func (t *Tricket) GetSchedule(ctx context.Context, opts ...schedule.Option) *schedule.Schedule {
	all := []schedule.Option{schedule.WithClock(t.clock), schedule.WithLocation(t.loc)}
	return schedule.New(t.GetProductions(ctx), append(all, opts...)...)
}

// GetAllTags collects the tags of all productions. A tag id seen twice
// keeps its last definition. The result is sorted by name, ignoring case.
func (t *Tricket) GetAllTags(ctx context.Context) []model.Tag {
	byID := map[string]model.Tag{}
	var order []string
	for _, p := range t.GetProductions(ctx) {
		for _, tag := range p.Tags {
			if _, seen := byID[tag.ID]; !seen {
				order = append(order, tag.ID)
			}
			byID[tag.ID] = tag
		}
	}
	tags := make([]model.Tag, 0, len(order))
	for _, id := range order {
		tags = append(tags, byID[id])
	}
	sort.SliceStable(tags, func(i, j int) bool {
		return strings.ToLower(tags[i].Name) < strings.ToLower(tags[j].Name)
	})
	return tags
}

// GetTagByID returns the tag with this id.
func (t *Tricket) GetTagByID(ctx context.Context, id string) (model.Tag, bool) {
	for _, tag := range t.GetAllTags(ctx) {
		if tag.ID == id {
			return tag, true
		}
	}
	return model.Tag{}, false
}

// GetTagByName returns the first tag, in name order, called name
// (case-insensitive).
func (t *Tricket) GetTagByName(ctx context.Context, name string) (model.Tag, bool) {
	for _, tag := range t.GetAllTags(ctx) {
		if strings.EqualFold(tag.Name, name) {
			return tag, true
		}
	}
	return model.Tag{}, false
}

// GetProductionsByTagID keeps the productions tagged id, in original order.
func (t *Tricket) GetProductionsByTagID(ctx context.Context, id string) []model.Production {
	return t.filter(ctx, func(p model.Production) bool { return p.HasTag(id) })
}

// GetProductionsByTagName keeps the productions with a tag called name.
func (t *Tricket) GetProductionsByTagName(ctx context.Context, name string) []model.Production {
	return t.filter(ctx, func(p model.Production) bool { return p.HasTagName(name) })
}

// GetProductionsByTagIDs keeps the productions carrying any of ids.
func (t *Tricket) GetProductionsByTagIDs(ctx context.Context, ids []string) []model.Production {
	return t.filter(ctx, func(p model.Production) bool { return p.HasAnyTag(ids) })
}

// GetProductionsWithAllTags keeps the productions carrying every one of ids.
func (t *Tricket) GetProductionsWithAllTags(ctx context.Context, ids []string) []model.Production {
	return t.filter(ctx, func(p model.Production) bool { return p.HasAllTags(ids) })
}

func (t *Tricket) filter(ctx context.Context, keep func(model.Production) bool) []model.Production {
	out := []model.Production{}
	for _, p := range t.GetProductions(ctx) {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// ClearCache drops the cached production list so the next read fetches
// again, and announces it on the sync queue.
func (t *Tricket) ClearCache(ctx context.Context, clearedBy string) {
	t.api.Cache().Delete(ctx, ProductionsCacheKey)
	if p := t.api.Publisher(); p != nil {
		pctx, cancel := t.api.publishContext(ctx)
		defer cancel()
		_ = p.PublishCacheCleared(pctx, queue.NewCacheCleared(ProductionsCacheKey, clearedBy, t.Now()))
	}
}
