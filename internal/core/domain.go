package core

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

const (
	KindAsset     RecordKind = "asset"
	KindIncome    RecordKind = "income"
	KindLiability RecordKind = "liability"
)

// UncategorizedLabel groups records whose category is missing or blank.
const UncategorizedLabel = "Uncategorized"

// MaxInterestRate is the highest accepted annual rate, in percent.
const MaxInterestRate = 1000.0

// ValidInterestRate reports whether v is a finite rate in [0, MaxInterestRate].
func ValidInterestRate(v float64) bool {
	return v >= 0 && v <= MaxInterestRate
}

type (
	RecordKind string

	// Record is one stored financial entry. InterestRate is only
	// meaningful for liabilities and stays zero for the other kinds.
	Record struct {
		ID           string
		OwnerID      string
		Kind         RecordKind
		Description  string
		Category     string
		Amount       float64
		InterestRate float64
		DateAdded    time.Time
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	User struct {
		ID           string
		Name         string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}
)

var (
	ErrNotFound            = errors.New("not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidKind         = errors.New("invalid record kind")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidInterestRate = errors.New("invalid interest rate")
	ErrEmptyDescription    = errors.New("empty description")
	ErrEmptyCategory       = errors.New("empty category")
	ErrEmptyOwner          = errors.New("empty owner")
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrWeakPassword        = errors.New("password must be at least 6 characters")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

// Kinds lists every record kind in the order the pipeline reads them.
func Kinds() []RecordKind {
	return []RecordKind{KindAsset, KindIncome, KindLiability}
}

func (k RecordKind) String() string {
	return string(k)
}

func (k RecordKind) IsValid() bool {
	switch k {
	case KindAsset, KindIncome, KindLiability:
		return true
	default:
		return false
	}
}

// Title returns the capitalized kind name used in API messages.
func (k RecordKind) Title() string {
	switch k {
	case KindAsset:
		return "Asset"
	case KindIncome:
		return "Income"
	case KindLiability:
		return "Liability"
	default:
		return string(k)
	}
}

// Plural returns the collection name (route segment and table name).
func (k RecordKind) Plural() string {
	switch k {
	case KindAsset:
		return "assets"
	case KindIncome:
		return "incomes"
	case KindLiability:
		return "liabilities"
	default:
		return string(k) + "s"
	}
}

// ParseKind accepts either the singular or the collection name.
func ParseKind(s string) (RecordKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if s == string(k) || s == k.Plural() {
			return k, nil
		}
	}
	return "", ErrInvalidKind
}

// CategoryLabel returns the grouping label. Non-blank categories are kept
// exactly as stored; blank ones become UncategorizedLabel.
func (r Record) CategoryLabel() string {
	if strings.TrimSpace(r.Category) != "" {
		return r.Category
	}
	return UncategorizedLabel
}

func (r Record) Validate() error {
	if !r.Kind.IsValid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(r.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if len(strings.TrimSpace(r.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(r.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if !ValidAmount(r.Amount) {
		return ErrInvalidAmount
	}
	if !ValidInterestRate(r.InterestRate) {
		return ErrInvalidInterestRate
	}
	if r.Kind != KindLiability && r.InterestRate != 0 {
		return ErrInvalidInterestRate
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword enforces the minimum password policy.
func ValidatePassword(pw string) error {
	if len(pw) < 6 {
		return ErrWeakPassword
	}
	return nil
}
