package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"qr_menu_backend/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSet       = fmt.Errorf("%w: invalid set", models.ErrValidation)
	ErrEmptyComposition = fmt.Errorf("%w: a set must contain at least one item", models.ErrValidation)
	ErrUnknownItem      = fmt.Errorf("%w: unknown menu item", models.ErrValidation)
)

// UnknownItemError lists every item id in a composition that the catalog doesn't know.
type UnknownItemError struct {
	ItemIDs []string
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("unknown menu item(s): %s", strings.Join(e.ItemIDs, ", "))
}

func (e *UnknownItemError) Unwrap() error { return ErrUnknownItem }

// ItemLookup answers whether an item exists. *Store satisfies it.
type ItemLookup interface {
	HasItem(id string) bool
}

// SetDraft is the set row being composed, before it has an id.
type SetDraft struct {
	Name        string
	Description *string
	TotalPrice  decimal.Decimal
	ImageURL    *string
	IsAvailable bool
}

// MembershipInput is one requested line of a set. Quantity is taken as sent by the
// client and normalized by Compose.
type MembershipInput struct {
	ItemID   string      `json:"menu_item_id"`
	Quantity interface{} `json:"quantity"`
}

// ValidatedSet is a draft whose memberships passed validation, ready to be persisted.
type ValidatedSet struct {
	Draft       SetDraft
	Memberships []models.SetMembership // ItemID, Quantity and Position set
}

// Composer validates set compositions against the known items.
type Composer struct {
	items ItemLookup
}

func NewComposer(items ItemLookup) *Composer {
	return &Composer{items: items}
}

// Compose validates draft and memberships. It does not persist anything.
// Repeated item ids are merged into one line with the quantities summed.
func (c *Composer) Compose(draft SetDraft, memberships []MembershipInput) (*ValidatedSet, error) {
	draft, err := ValidateDraft(draft)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, ErrEmptyComposition
	}

	var unknown []string
	seenUnknown := map[string]bool{}
	index := map[string]int{}
	lines := make([]models.SetMembership, 0, len(memberships))

	for _, in := range memberships {
		id := strings.TrimSpace(in.ItemID)
		if id == "" {
			return nil, fmt.Errorf("%w: menu_item_id is required for every line", ErrInvalidSet)
		}
		if !c.items.HasItem(id) {
			if !seenUnknown[id] {
				seenUnknown[id] = true
				unknown = append(unknown, id)
			}
			continue
		}
		qty := NormalizeQuantity(in.Quantity)
		if i, ok := index[id]; ok {
			lines[i].Quantity = addQuantities(lines[i].Quantity, qty)
			continue
		}
		index[id] = len(lines)
		lines = append(lines, models.SetMembership{ItemID: id, Quantity: qty, Position: len(lines)})
	}

	if len(unknown) > 0 {
		return nil, &UnknownItemError{ItemIDs: unknown}
	}
	return &ValidatedSet{Draft: draft, Memberships: lines}, nil
}

// ValidateDraft checks the set row alone and returns it with the name trimmed.
func ValidateDraft(draft SetDraft) (SetDraft, error) {
	draft.Name = strings.TrimSpace(draft.Name)
	if draft.Name == "" {
		return draft, fmt.Errorf("%w: name is required", ErrInvalidSet)
	}
	if draft.TotalPrice.IsNegative() {
		return draft, fmt.Errorf("%w: total_price must not be negative", ErrInvalidSet)
	}
	return draft, nil
}

// NormalizeQuantity coerces a client-supplied quantity to an integer of at least 1.
// Fractions are truncated; anything non-numeric or below 1 becomes 1.
func NormalizeQuantity(v interface{}) int {
	var n int64
	switch q := v.(type) {
	case int:
		n = int64(q)
	case int32:
		n = int64(q)
	case int64:
		n = q
	case uint:
		n = clampUint(uint64(q))
	case uint32:
		n = int64(q)
	case uint64:
		n = clampUint(q)
	case float32:
		n = truncFloat(float64(q))
	case float64:
		n = truncFloat(q)
	case json.Number:
		n = parseNumeric(q.String())
	case string:
		n = parseNumeric(q)
	default:
		return 1
	}
	if n < 1 {
		return 1
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

func parseNumeric(s string) int64 {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return truncFloat(f)
	}
	return 0
}

func truncFloat(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int64(math.Trunc(f))
}

func clampUint(u uint64) int64 {
	if u > math.MaxInt32 {
		return math.MaxInt32
	}
	return int64(u)
}

func addQuantities(a, b int) int {
	if a > math.MaxInt32-b {
		return math.MaxInt32
	}
	return a + b
}
