// Package loader bootstraps the category tree from the marketplace main menu.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/pricepulse/wbradar/internal/domain"
	"github.com/pricepulse/wbradar/internal/marketplace"
	"github.com/pricepulse/wbradar/internal/repository"
)

// MenuFetcher is the marketplace surface the loader consumes. Satisfied by
// *marketplace.Client.
type MenuFetcher interface {
	FetchMenu(ctx context.Context) ([]marketplace.MenuNode, error)
}

var cyrillic = regexp.MustCompile(`[а-яА-Я]`)

// Loader downloads the main menu, flattens it into category rows, and swaps
// them into the store.
type Loader struct {
	fetcher    MenuFetcher
	categories repository.CategoryRepository
	logger     *slog.Logger
}

// New creates a category loader.
func New(fetcher MenuFetcher, categories repository.CategoryRepository, logger *slog.Logger) *Loader {
	return &Loader{
		fetcher:    fetcher,
		categories: categories,
		logger:     logger,
	}
}

// Load fetches the menu tree, flattens it, and replaces the stored category
// set. It returns the number of categories written. A node that fails
// validation aborts the load: a malformed tree means the upstream format
// changed and nothing derived from it can be trusted.
func (l *Loader) Load(ctx context.Context) (int, error) {
	nodes, err := l.fetcher.FetchMenu(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch main menu: %w", err)
	}

	var categories []domain.Category
	if err := flatten(nodes, &categories); err != nil {
		return 0, err
	}

	if err := l.categories.ReplaceAll(ctx, categories); err != nil {
		return 0, fmt.Errorf("store categories: %w", err)
	}

	l.logger.InfoContext(ctx, "category tree loaded",
		slog.Int("categories", len(categories)),
	)
	return len(categories), nil
}

// flatten walks the menu tree depth-first. Only landing nodes and nodes with
// a parent become categories; top-level grouping nodes exist purely for
// navigation.
func flatten(nodes []marketplace.MenuNode, out *[]domain.Category) error {
	for _, node := range nodes {
		if node.Landing || node.Parent != nil {
			cat, err := toCategory(node)
			if err != nil {
				return err
			}
			*out = append(*out, cat)
		}
		if err := flatten(node.Childs, out); err != nil {
			return err
		}
	}
	return nil
}

// toCategory validates one menu node and converts it to a category row.
func toCategory(node marketplace.MenuNode) (domain.Category, error) {
	if err := validateNode(node); err != nil {
		return domain.Category{}, fmt.Errorf("category node %d: %w", node.ID, err)
	}
	return domain.Category{
		ID:       node.ID,
		Name:     node.Name,
		ParentID: node.Parent,
		URL:      node.URL,
		Shard:    node.Shard,
		Query:    node.Query,
		Children: len(node.Childs) > 0,
	}, nil
}

// validateNode enforces the structural invariants of a materialized node:
// the url must be a path or absolute https link, the query must be a real
// query-string fragment, and shard/query must be pure routing tokens.
func validateNode(node marketplace.MenuNode) error {
	if !strings.HasPrefix(node.URL, "/") && !strings.HasPrefix(node.URL, "https://") {
		return fmt.Errorf("url %q must start with %q or %q", node.URL, "/", "https://")
	}
	if node.Query != nil && !strings.Contains(*node.Query, "=") {
		return fmt.Errorf("query %q must contain %q", *node.Query, "=")
	}
	for _, field := range []struct {
		name  string
		value *string
	}{
		{"shard", node.Shard},
		{"query", node.Query},
	} {
		if field.value == nil {
			continue
		}
		if cyrillic.MatchString(*field.value) {
			return fmt.Errorf("%s %q must not contain cyrillic letters", field.name, *field.value)
		}
		if strings.Contains(*field.value, " ") {
			return fmt.Errorf("%s %q must not contain spaces", field.name, *field.value)
		}
	}
	return nil
}
