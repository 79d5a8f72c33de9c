package users

import "time"

// Condition grades a collected card, using the common TCG scale.
type Condition string

const (
	ConditionNM  Condition = "NM"  // Near Mint
	ConditionLP  Condition = "LP"  // Lightly Played
	ConditionMP  Condition = "MP"  // Moderately Played
	ConditionHP  Condition = "HP"  // Heavily Played
	ConditionDMG Condition = "DMG" // Damaged
)

// ValidCondition reports whether c is one of the known grades.
func ValidCondition(c Condition) bool {
	switch c {
	case ConditionNM, ConditionLP, ConditionMP, ConditionHP, ConditionDMG:
		return true
	}
	return false
}

// CollectedCard is one binder entry. A user holds at most one entry per
// cardId; repeated adds merge into the existing entry's quantity.
type CollectedCard struct {
	CardID    string    `json:"cardId"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	SetName   string    `json:"setName,omitempty"`
	Rarity    string    `json:"rarity,omitempty"`
	Quantity  int       `json:"quantity"`
	Condition Condition `json:"condition"`
	Price     *float64  `json:"price,omitempty"`
	AddedAt   time.Time `json:"addedAt"`
}

// User is a binder owner. Users live in process memory only; the store
// is a placeholder for a real persistence layer.
type User struct {
	ID    int             `json:"id"`
	Name  string          `json:"name"`
	Cards []CollectedCard `json:"cards"`
}
