package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OptionKind is the payoff sign of a contract: +1 for calls, -1 for puts.
type OptionKind int

const (
	Put  OptionKind = -1
	Call OptionKind = 1
)

// Sign returns the kind as a float multiplier.
func (k OptionKind) Sign() float64 {
	return float64(k)
}

// String returns "call" or "put".
func (k OptionKind) String() string {
	switch k {
	case Call:
		return "call"
	case Put:
		return "put"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind as "call" or "put".
func (k OptionKind) MarshalText() ([]byte, error) {
	if k != Call && k != Put {
		return nil, fmt.Errorf("invalid option kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText accepts "call"/"put", "c"/"p" or "1"/"-1".
func (k *OptionKind) UnmarshalText(text []byte) error {
	parsed, err := ParseOptionKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseOptionKind parses a contract kind.
func ParseOptionKind(s string) (OptionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "calls", "c", "1", "+1":
		return Call, nil
	case "put", "puts", "p", "-1":
		return Put, nil
	default:
		return 0, fmt.Errorf("unknown option kind %q", s)
	}
}

// ExerciseStyle is the exercise convention of a contract.
type ExerciseStyle string

const (
	European ExerciseStyle = "european"
	American ExerciseStyle = "american"
)

// IsEuropean reports whether the style only allows exercise at expiry.
// An empty style defaults to American, matching listed equity options.
func (s ExerciseStyle) IsEuropean() bool {
	return s == European
}

// OptionContract is one normalized row of an option chain.
type OptionContract struct {
	Symbol            string           `json:"symbol,omitempty"`
	Expiry            time.Time        `json:"expiryDate" validate:"required"`
	Strike            float64          `json:"strike" validate:"gt=0"`
	Kind              OptionKind       `json:"kind" validate:"oneof=-1 1"`
	Style             ExerciseStyle    `json:"style,omitempty" validate:"omitempty,oneof=european american"`
	LastPrice         float64          `json:"lastPrice" validate:"gte=0"`
	Bid               float64          `json:"bid" validate:"gte=0"`
	Ask               float64          `json:"ask" validate:"gte=0"`
	Volume            int64            `json:"volume" validate:"gte=0"`
	OpenInterest      int64            `json:"openInterest" validate:"gte=0"`
	ImpliedVolatility float64          `json:"impliedVolatility" validate:"gte=0"`
	LastTradeDate     time.Time        `json:"lastTradeDate"`
	Valuation         *ValuationResult `json:"valuationData,omitempty"`
}

// Key identifies the contract within its symbol's chain as
// EXPIRY_KIND_STRIKE, e.g. 2024-01-19_call_150.
func (c OptionContract) Key() string {
	return fmt.Sprintf("%s_%s_%s", c.Expiry.Format("2006-01-02"), c.Kind, strconv.FormatFloat(c.Strike, 'f', -1, 64))
}

// IsOTM reports whether the contract is out of the money at spot.
func (c OptionContract) IsOTM(spot float64) bool {
	return c.Kind.Sign()*(spot-c.Strike) < 0
}

// ContractSelector picks a single contract out of a chain.
type ContractSelector struct {
	Expiry time.Time
	Kind   OptionKind
	Strike float64
}

// ParseContractSelector parses EXPIRY_KIND_STRIKE.
func ParseContractSelector(s string) (ContractSelector, error) {
	parts := strings.Split(strings.TrimSpace(s), "_")
	if len(parts) != 3 {
		return ContractSelector{}, fmt.Errorf("contract selector %q: expected EXPIRY_KIND_STRIKE", s)
	}

	expiry, err := time.Parse("2006-01-02", parts[0])
	if err != nil {
		return ContractSelector{}, fmt.Errorf("contract selector %q: parse expiry: %w", s, err)
	}

	kind, err := ParseOptionKind(parts[1])
	if err != nil {
		return ContractSelector{}, fmt.Errorf("contract selector %q: %w", s, err)
	}

	strike, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || strike <= 0 {
		return ContractSelector{}, fmt.Errorf("contract selector %q: invalid strike", s)
	}

	return ContractSelector{Expiry: expiry, Kind: kind, Strike: strike}, nil
}

// Matches reports whether c is the selected contract.
func (sel ContractSelector) Matches(c OptionContract) bool {
	return c.Kind == sel.Kind && c.Strike == sel.Strike &&
		c.Expiry.Format("2006-01-02") == sel.Expiry.Format("2006-01-02")
}
