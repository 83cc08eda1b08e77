package storage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"expense-records/internal/models"

	"github.com/shopspring/decimal"
)

// Identity selects how a deployment identifies rows.
type Identity int

const (
	// IdentitySurrogate deployments have a store-assigned id column.
	IdentitySurrogate Identity = iota
	// IdentityNaturalKey deployments have no id column; rows are located by
	// (description, amount, category, date).
	IdentityNaturalKey
)

// ParseIdentity accepts "surrogate"/"id" and "natural"/"natural-key".
func ParseIdentity(s string) (Identity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "surrogate", "id":
		return IdentitySurrogate, nil
	case "natural", "natural-key", "natural_key":
		return IdentityNaturalKey, nil
	default:
		return 0, fmt.Errorf("unknown identity strategy %q", s)
	}
}

func (i Identity) String() string {
	if i == IdentityNaturalKey {
		return "natural-key"
	}
	return "surrogate"
}

type criteriaKind int

const (
	byID criteriaKind = iota + 1
	byNaturalKey
)

// Criteria identifies the row or rows an update or delete targets.
type Criteria struct {
	kind criteriaKind
	id   int64
	key  models.NaturalKey
}

// ByID matches the row with the given surrogate id.
func ByID(id int64) Criteria {
	return Criteria{kind: byID, id: id}
}

// ByNaturalKey matches rows whose stored fields equal those of e. The amount
// and date must be the exact values previously read back from the store.
func ByNaturalKey(e models.Expense) Criteria {
	return Criteria{kind: byNaturalKey, key: e.NaturalKey()}
}

// IsNaturalKey reports whether c matches by field values.
func (c Criteria) IsNaturalKey() bool {
	return c.kind == byNaturalKey
}

func (c Criteria) String() string {
	switch c.kind {
	case byID:
		return "id=" + strconv.FormatInt(c.id, 10)
	case byNaturalKey:
		return fmt.Sprintf("key=(%q, %s)", c.key.Description, c.key.Amount.StringFixed(models.AmountPlaces))
	default:
		return "none"
	}
}

// Predicate is a WHERE clause with ? placeholders and its bound arguments.
type Predicate struct {
	Clause string
	Args   []any
}

// IdentityResolver turns Criteria into a Predicate for one deployment shape.
type IdentityResolver struct {
	identity    Identity
	requireDate bool
	nullSafeEq  string
}

// NewIdentityResolver returns a resolver for the given deployment.
func NewIdentityResolver(d Dialect, identity Identity, requireDate bool) IdentityResolver {
	return IdentityResolver{identity: identity, requireDate: requireDate, nullSafeEq: d.NullSafeEq}
}

// Resolve builds the match predicate. It has no side effects and performs
// no store access.
func (r IdentityResolver) Resolve(c Criteria) (Predicate, error) {
	switch c.kind {
	case byID:
		if r.identity != IdentitySurrogate {
			return Predicate{}, errors.New("deployment has no id column")
		}
		return Predicate{Clause: "id = ?", Args: []any{c.id}}, nil
	case byNaturalKey:
		k := c.key
		if strings.TrimSpace(k.Description) == "" {
			return Predicate{}, errors.New("natural key requires a description")
		}
		if r.requireDate && k.Date == nil {
			return Predicate{}, errors.New("natural key requires a date")
		}
		if k.Date != nil && !k.Date.Valid() {
			return Predicate{}, fmt.Errorf("natural key has invalid date %v", *k.Date)
		}
		clause := fmt.Sprintf("description = ? AND amount = ? AND category %[1]s ? AND date %[1]s ?", r.nullSafeEq)
		return Predicate{
			Clause: clause,
			Args:   []any{k.Description, amountArg(k.Amount), nullableString(k.Category), nullableDate(k.Date)},
		}, nil
	default:
		return Predicate{}, errors.New("no criteria given")
	}
}

// Arguments are reduced to plain driver values here so that no driver's
// named value checker sees a pointer or a decimal.

func amountArg(d decimal.Decimal) string {
	return d.StringFixed(models.AmountPlaces)
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableDate(d *models.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}
