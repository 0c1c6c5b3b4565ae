package search

import "github.com/hyperjump/icebreaker/pkg/utils"

// NormalizeQuery trims the query and collapses internal whitespace.
func NormalizeQuery(query string) string {
	return utils.CollapseSpace(query)
}
