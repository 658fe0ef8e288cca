package pane

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// OrderByLabel sorts options on their label.
	OrderByLabel = 0
	// OrderByCount sorts options on their count badge.
	OrderByCount = 1

	DirAsc  = "asc"
	DirDesc = "desc"
)

// Order is a pane's sort order. It encodes to JSON as [column, "asc"|"desc"].
type Order struct {
	Column int
	Dir    string
}

// DefaultOrder sorts by label ascending.
func DefaultOrder() Order {
	return Order{Column: OrderByLabel, Dir: DirAsc}
}

// Valid reports whether the order names a known column and direction.
func (o Order) Valid() bool {
	return (o.Column == OrderByLabel || o.Column == OrderByCount) && (o.Dir == DirAsc || o.Dir == DirDesc)
}

// Next cycles label asc → label desc → count desc → count asc → label asc.
func (o Order) Next() Order {
	switch {
	case o.Column == OrderByLabel && o.Dir == DirAsc:
		return Order{Column: OrderByLabel, Dir: DirDesc}
	case o.Column == OrderByLabel:
		return Order{Column: OrderByCount, Dir: DirDesc}
	case o.Dir == DirDesc:
		return Order{Column: OrderByCount, Dir: DirAsc}
	default:
		return DefaultOrder()
	}
}

func (o Order) String() string {
	name := "label"
	if o.Column == OrderByCount {
		name = "count"
	}
	return name + " " + o.Dir
}

// ParseOrder reads "label asc", "count desc" and the like. The direction
// defaults to asc.
func ParseOrder(text string) (Order, error) {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 || len(fields) > 2 {
		return Order{}, fmt.Errorf("parse order %q: expected \"<label|count> [asc|desc]\"", text)
	}
	o := DefaultOrder()
	switch fields[0] {
	case "label":
		o.Column = OrderByLabel
	case "count":
		o.Column = OrderByCount
	default:
		return Order{}, fmt.Errorf("parse order %q: unknown column %q", text, fields[0])
	}
	if len(fields) == 2 {
		o.Dir = fields[1]
	}
	if !o.Valid() {
		return Order{}, fmt.Errorf("parse order %q: unknown direction %q", text, o.Dir)
	}
	return o, nil
}

func (o Order) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{o.Column, o.Dir})
}

func (o *Order) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode order: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("decode order: expected 2 elements, got %d", len(raw))
	}
	var decoded Order
	if err := json.Unmarshal(raw[0], &decoded.Column); err != nil {
		return fmt.Errorf("decode order column: %w", err)
	}
	if err := json.Unmarshal(raw[1], &decoded.Dir); err != nil {
		return fmt.Errorf("decode order direction: %w", err)
	}
	decoded.Dir = strings.ToLower(decoded.Dir)
	if !decoded.Valid() {
		return fmt.Errorf("decode order: unsupported order %v", decoded)
	}
	*o = decoded
	return nil
}

// sortOptions orders opts in place. Ties on count fall back to ascending
// label order regardless of direction.
func sortOptions(opts []Option, order Order, strategy Strategy) {
	desc := order.Dir == DirDesc
	sort.SliceStable(opts, func(i, j int) bool {
		a, b := opts[i], opts[j]
		if order.Column == OrderByCount {
			ca, cb := strategy.sortCount(a), strategy.sortCount(b)
			if ca != cb {
				if desc {
					return ca > cb
				}
				return ca < cb
			}
			return naturalLess(a.Label, b.Label)
		}
		if desc {
			return naturalLess(b.Label, a.Label)
		}
		return naturalLess(a.Label, b.Label)
	})
}

// naturalLess compares numerically when both sides parse as numbers.
func naturalLess(a, b string) bool {
	fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA == nil && errB == nil {
		if fa != fb {
			return fa < fb
		}
		return a < b
	}
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
