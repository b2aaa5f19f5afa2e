package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/curio/internal/domain"
	"github.com/MrSnakeDoc/curio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/curio/internal/httpserver/respond"
	"github.com/MrSnakeDoc/curio/internal/logger"
)

// Query parameter names of GET /api/resources.
const (
	ParamSearch           = "search"
	ParamTopics           = "topics"
	ParamTagCategories    = "tagCategories"
	ParamTagSubcategories = "tagSubcategories"
	ParamDifficulty       = "difficulty"
	ParamContentType      = "content_type"
	ParamSortBy           = "sortBy"
	ParamSortOrder        = "sortOrder"
)

// ParseQuery reads a catalog query from URL parameters. Facet values are
// comma-separated and may also be repeated.
func ParseQuery(values url.Values) (domain.Query, error) {
	sortBy, err := domain.ParseSortKey(values.Get(ParamSortBy))
	if err != nil {
		return domain.Query{}, err
	}
	sortOrder, err := domain.ParseSortOrder(values.Get(ParamSortOrder))
	if err != nil {
		return domain.Query{}, err
	}

	return domain.Query{
		Search: values.Get(ParamSearch),
		Filters: domain.FilterOptions{
			Topics:           splitList(values[ParamTopics]),
			TagCategories:    splitList(values[ParamTagCategories]),
			TagSubcategories: splitList(values[ParamTagSubcategories]),
			Difficulty:       splitList(values[ParamDifficulty]),
			ContentType:      splitList(values[ParamContentType]),
		},
		SortBy:    sortBy,
		SortOrder: sortOrder,
	}, nil
}

func splitList(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func Resources(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := ParseQuery(r.URL.Query())
		if err != nil {
			respond.Error(w, r, d.Logger, err)
			return
		}

		list, err := d.Resources.FetchResources(r.Context(), q)
		if err != nil {
			respond.Error(w, r, d.Logger, err)
			return
		}

		d.Logger.Debug("resources served",
			logger.String("search", q.Search),
			logger.Int("count", len(list)))
		respond.JSON(w, http.StatusOK, nonNil(list))
	}
}

func ResourceOptions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := d.Resources.FetchFacetOptions(r.Context())
		if err != nil {
			respond.Error(w, r, d.Logger, err)
			return
		}
		respond.JSON(w, http.StatusOK, opts)
	}
}

func SneakPeek(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := d.Resources.FetchPreview(r.Context())
		if err != nil {
			respond.Error(w, r, d.Logger, err)
			return
		}
		respond.JSON(w, http.StatusOK, nonNil(list))
	}
}

// nonNil keeps empty lists rendering as [] rather than null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
