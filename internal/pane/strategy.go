package pane

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Strategy selects how a pane lists its options and renders count badges.
// It is fixed when the pane is constructed.
type Strategy int

const (
	// Plain lists every value and shows its total.
	Plain Strategy = iota
	// Cascade hides values that no visible row carries, unless selected.
	Cascade
	// ViewTotal lists every value and shows "count (total)" while filtering.
	ViewTotal
	// CascadeViewTotal combines Cascade listing with ViewTotal badges.
	CascadeViewTotal
)

// StrategyFor maps the cascade/view-total options onto a Strategy.
func StrategyFor(cascade, viewTotal bool) Strategy {
	switch {
	case cascade && viewTotal:
		return CascadeViewTotal
	case cascade:
		return Cascade
	case viewTotal:
		return ViewTotal
	default:
		return Plain
	}
}

func (s Strategy) String() string {
	switch s {
	case Cascade:
		return "cascade"
	case ViewTotal:
		return "view-total"
	case CascadeViewTotal:
		return "cascade+view-total"
	default:
		return "plain"
	}
}

func (s Strategy) cascades() bool {
	return s == Cascade || s == CascadeViewTotal
}

func (s Strategy) viewsTotal() bool {
	return s == ViewTotal || s == CascadeViewTotal
}

// Listed reports whether opt appears in the pane's option list.
func (s Strategy) Listed(opt Option) bool {
	if !s.cascades() {
		return true
	}
	return opt.Selected || opt.Count > 0
}

// Badge renders the count shown next to an option.
func (s Strategy) Badge(opt Option, filteringActive bool) string {
	switch {
	case s.viewsTotal():
		if filteringActive || opt.Count != opt.Total {
			return fmt.Sprintf("%s (%s)", humanize.Comma(int64(opt.Count)), humanize.Comma(int64(opt.Total)))
		}
		return humanize.Comma(int64(opt.Total))
	case s.cascades():
		return humanize.Comma(int64(opt.Count))
	default:
		return humanize.Comma(int64(opt.Total))
	}
}

// sortCount is the number an option is ordered by when sorting on the badge.
func (s Strategy) sortCount(opt Option) int {
	if s == Plain {
		return opt.Total
	}
	return opt.Count
}
