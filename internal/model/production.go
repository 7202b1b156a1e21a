package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/tricket/internal/utils"
)

// DefaultLocale is the language used when a caller does not ask for one.
const DefaultLocale = "en-US"

// DefaultProductionsSlug is the URL segment productions live under.
const DefaultProductionsSlug = "productions"

// Production is a theatrical work together with its media, tags and every
// screening the API returned for it, past ones included.
type Production struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Descriptions      map[string]string `json:"description"`
	ShortDescriptions map[string]string `json:"shortDescription"`
	DurationInMinutes *int              `json:"durationInMinutes,omitempty"`
	Cast              *string           `json:"cast,omitempty"`
	DirectedBy        *string           `json:"directedBy,omitempty"`
	Thumbnail         *string           `json:"thumbnail,omitempty"`
	VideoURL          *string           `json:"videoUrl,omitempty"`
	ContentRatings    []string          `json:"contentRatings"`
	Images            []Image           `json:"images"`
	Tags              []Tag             `json:"tags"`
	Screenings        []Screening       `json:"screenings"`
}

// NewProduction builds a Production from an API record.  id, title,
// description and shortDescription are mandatory; a failure in any nested
// image, tag or screening fails the whole production.
func NewProduction(rec Record) (Production, error) {
	const entity = "Production"
	if err := requireFields(entity, rec, "id", "title", "description", "shortDescription"); err != nil {
		return Production{}, err
	}

	var (
		p   Production
		err error
	)
	if p.ID, err = stringField(entity, rec, "id"); err != nil {
		return Production{}, err
	}
	if p.Title, err = stringField(entity, rec, "title"); err != nil {
		return Production{}, err
	}
	if p.Descriptions, err = localeMap(entity, rec, "description"); err != nil {
		return Production{}, err
	}
	if p.ShortDescriptions, err = localeMap(entity, rec, "shortDescription"); err != nil {
		return Production{}, err
	}
	if p.DurationInMinutes, err = optionalInt(entity, rec, "durationInMinutes"); err != nil {
		return Production{}, err
	}
	if p.Cast, err = optionalString(entity, rec, "cast"); err != nil {
		return Production{}, err
	}
	if p.DirectedBy, err = optionalString(entity, rec, "directedBy"); err != nil {
		return Production{}, err
	}
	if p.VideoURL, err = optionalString(entity, rec, "videoUrl"); err != nil {
		return Production{}, err
	}
	if p.Thumbnail, err = optionalString(entity, rec, "thumbnail"); err != nil {
		return Production{}, err
	}
	if p.ContentRatings, err = stringList(entity, rec, "contentRatings"); err != nil {
		return Production{}, err
	}

	images, err := recordList(entity, rec, "images")
	if err != nil {
		return Production{}, err
	}
	p.Images = make([]Image, 0, len(images))
	for _, r := range images {
		img, err := NewImage(r)
		if err != nil {
			return Production{}, fmt.Errorf("production %s: %w", p.ID, err)
		}
		p.Images = append(p.Images, img)
	}
	sort.SliceStable(p.Images, func(i, j int) bool { return p.Images[i].SortOrder < p.Images[j].SortOrder })

	tags, err := recordList(entity, rec, "tags")
	if err != nil {
		return Production{}, err
	}
	p.Tags = make([]Tag, 0, len(tags))
	for _, r := range tags {
		tag, err := NewTag(r)
		if err != nil {
			return Production{}, fmt.Errorf("production %s: %w", p.ID, err)
		}
		p.Tags = append(p.Tags, tag)
	}

	screenings, err := recordList(entity, rec, "screenings")
	if err != nil {
		return Production{}, err
	}
	p.Screenings = make([]Screening, 0, len(screenings))
	for _, r := range screenings {
		s, err := NewScreening(r)
		if err != nil {
			return Production{}, fmt.Errorf("production %s: %w", p.ID, err)
		}
		p.Screenings = append(p.Screenings, s)
	}
	return p, nil
}

// Description returns the long description for lang, or "" when the
// locale is not available.
func (p Production) Description(lang string) string {
	if lang == "" {
		lang = DefaultLocale
	}
	return p.Descriptions[lang]
}

// ShortDescription returns the short description for lang, or "".
func (p Production) ShortDescription(lang string) string {
	if lang == "" {
		lang = DefaultLocale
	}
	return p.ShortDescriptions[lang]
}

// AllScreenings returns every screening, including those already started.
func (p Production) AllScreenings() []Screening {
	return p.Screenings
}

// CurrentScreenings returns the screenings starting strictly after now.
// The view is recomputed on every call.
func (p Production) CurrentScreenings(now time.Time) []Screening {
	out := make([]Screening, 0, len(p.Screenings))
	for _, s := range p.Screenings {
		if s.StartAt.UTC().After(now.UTC()) {
			out = append(out, s)
		}
	}
	return out
}

// Slug is the URL-safe form of the title.
func (p Production) Slug() string {
	return utils.Slugify(p.Title)
}

// URL builds the public page address: {homeURL}/{productionsSlug}/{title-slug}/.
func (p Production) URL(homeURL, productionsSlug string) string {
	productionsSlug = strings.Trim(productionsSlug, "/")
	if productionsSlug == "" {
		productionsSlug = DefaultProductionsSlug
	}
	return strings.TrimRight(homeURL, "/") + "/" + productionsSlug + "/" + p.Slug() + "/"
}

// HasTag reports whether the production carries the tag with this id.
func (p Production) HasTag(id string) bool {
	for _, t := range p.Tags {
		if t.ID == id {
			return true
		}
	}
	return false
}

// HasTagName reports whether the production carries a tag named name,
// compared case-insensitively.
func (p Production) HasTagName(name string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}

// HasAnyTag reports whether at least one of ids is attached.
func (p Production) HasAnyTag(ids []string) bool {
	for _, id := range ids {
		if p.HasTag(id) {
			return true
		}
	}
	return false
}

// HasAllTags reports whether every one of ids is attached.  An empty list
// is trivially satisfied.
func (p Production) HasAllTags(ids []string) bool {
	for _, id := range ids {
		if !p.HasTag(id) {
			return false
		}
	}
	return true
}

// TagIDs lists the ids of the attached tags in their original order.
func (p Production) TagIDs() []string {
	out := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		out = append(out, t.ID)
	}
	return out
}
