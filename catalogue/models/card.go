package models

import "time"

// Card is the reduced projection returned by list endpoints.
type Card struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	SetName    string  `json:"set_name"`
	Rarity     *string `json:"rarity"`
	ImageSmall *string `json:"image_small"`
}

// CardDetail is the full record returned by GET /cards/{cardID}.
type CardDetail struct {
	Card
	Number      string      `json:"number,omitempty"`
	HP          string      `json:"hp,omitempty"`
	Supertype   string      `json:"supertype,omitempty"`
	Types       []string    `json:"types,omitempty"`
	Abilities   []Ability   `json:"abilities,omitempty"`
	Attacks     []Attack    `json:"attacks,omitempty"`
	Weaknesses  []TypeValue `json:"weaknesses,omitempty"`
	Resistances []TypeValue `json:"resistances,omitempty"`
	Artist      string      `json:"artist,omitempty"`
	Prices      []CardPrice `json:"prices"`
}

type Ability struct {
	Name string `json:"name"`
	Text string `json:"text"`
	Type string `json:"type,omitempty"`
}

type Attack struct {
	Name                string   `json:"name"`
	Cost                []string `json:"cost,omitempty"`
	ConvertedEnergyCost int      `json:"convertedEnergyCost,omitempty"`
	Damage              string   `json:"damage,omitempty"`
	Text                string   `json:"text,omitempty"`
}

// TypeValue is a weakness or resistance entry.
type TypeValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// CardPrice is one price point from a pricing source.
type CardPrice struct {
	Source    string    `json:"source"`
	Variant   string    `json:"variant"`
	Low       *float64  `json:"low"`
	Mid       *float64  `json:"mid"`
	High      *float64  `json:"high"`
	Market    *float64  `json:"market"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CardsPage is the envelope returned by GET /cards.
type CardsPage struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Total int    `json:"total"`
	Data  []Card `json:"data"`
}
