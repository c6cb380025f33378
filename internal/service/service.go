// Package service holds the business rules between the HTTP handlers and the
// repositories. Every error it returns is an *apperr.Error.
package service

import (
	"strings"

	"go.uber.org/zap"

	"prizetalk/internal/pkg"
	"prizetalk/internal/pkg/apperr"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// storeErr classifies a repository error and logs it when it is not the
// caller's fault.
func storeErr(log *zap.Logger, op string, err error, notFound string) error {
	out := apperr.FromDB(err, notFound)
	if apperr.KindOf(out) == apperr.Internal {
		log.Error(op+" failed", zap.Error(err))
	}
	return out
}

// clampPage applies the default page size and caps it.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// NormalizeTags strips markup, trims and lowercases tags, dropping empties
// and duplicates.
// Input order is kept.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(pkg.SanitizeText(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SplitTags parses a comma separated query value.
func SplitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	return NormalizeTags(strings.Split(raw, ","))
}
