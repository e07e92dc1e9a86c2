package model

import (
	"strings"
	"time"
)

type LookupKind string

const (
	Roaster     LookupKind = "roasters"
	BeanType    LookupKind = "bean_types"
	Country     LookupKind = "countries"
	BrewMethod  LookupKind = "brew_methods"
	Recipe      LookupKind = "recipes"
	Grinder     LookupKind = "grinders"
	Filter      LookupKind = "filters"
	Kettle      LookupKind = "kettles"
	Scale       LookupKind = "scales"
	DecafMethod LookupKind = "decaf_methods"
)

const (
	ProductsTable     = "products"
	BatchesTable      = "batches"
	BrewSessionsTable = "brew_sessions"
)

var LookupKinds = []LookupKind{
	Roaster, BeanType, Country, BrewMethod, Recipe, Grinder, Filter, Kettle, Scale, DecafMethod,
}

var singularNames = map[LookupKind]string{
	Roaster:     "roaster",
	BeanType:    "bean type",
	Country:     "country",
	BrewMethod:  "brew method",
	Recipe:      "recipe",
	Grinder:     "grinder",
	Filter:      "filter",
	Kettle:      "kettle",
	Scale:       "scale",
	DecafMethod: "decaf method",
}

func ParseLookupKind(value string) (LookupKind, bool) {
	kind := LookupKind(value)
	_, ok := singularNames[kind]

	return kind, ok
}

func (k LookupKind) TableName() string {
	return string(k)
}

func (k LookupKind) FileName() string {
	return string(k) + ".json"
}

func (k LookupKind) Singular() string {
	return singularNames[k]
}

// UsedByProducts reports whether products (rather than brew sessions) hold
// references to this kind.
func (k LookupKind) UsedByProducts() bool {
	switch k {
	case Roaster, BeanType, Country, DecafMethod:
		return true
	default:
		return false
	}
}

func (k LookupKind) UsageType() string {
	if k.UsedByProducts() {
		return ProductsTable
	}

	return BrewSessionsTable
}

type SmartDefaultPolicy struct {
	Window          time.Duration
	FrequencyWeight float64
	RecencyWeight   float64
}

const day = 24 * time.Hour

// Equipment is picked by habit, so recency weighs more than for provenance data.
var (
	ProductUsagePolicy = SmartDefaultPolicy{Window: 30 * day, FrequencyWeight: 0.7, RecencyWeight: 0.3}
	SessionUsagePolicy = SmartDefaultPolicy{Window: 7 * day, FrequencyWeight: 0.6, RecencyWeight: 0.4}
)

func (k LookupKind) SmartDefaultPolicy() SmartDefaultPolicy {
	if k.UsedByProducts() {
		return ProductUsagePolicy
	}

	return SessionUsagePolicy
}

// TableFiles lists every table file a data directory can hold.
func TableFiles() []string {
	files := []string{ProductsTable + ".json", BatchesTable + ".json", BrewSessionsTable + ".json"}
	for _, kind := range LookupKinds {
		files = append(files, kind.FileName())
	}

	return files
}

type Lookup struct {
	Base
	Name                string   `json:"name"`
	ShortForm           string   `json:"short_form,omitempty"`
	Description         string   `json:"description,omitempty"`
	Notes               string   `json:"notes,omitempty"`
	URL                 string   `json:"url,omitempty"`
	ImageURL            string   `json:"image_url,omitempty"`
	Icon                string   `json:"icon,omitempty"`
	IsDefault           bool     `json:"is_default"`
	ManuallyGroundGrams *float64 `json:"manually_ground_grams,omitempty"`
}

func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (l *Lookup) HasName(name string) bool {
	normalized := NormalizeName(name)

	return normalized != "" && NormalizeName(l.Name) == normalized
}

func (l *Lookup) HasShortForm(code string) bool {
	return code != "" && l.ShortForm == code
}

type Usage struct {
	InUse      bool   `json:"in_use"`
	UsageCount int    `json:"usage_count"`
	UsageType  string `json:"usage_type"`
}

type ReferenceUpdate struct {
	UpdatedCount int `json:"updated_count"`
}

type GrinderStats struct {
	TotalBrews           int     `json:"total_brews"`
	TotalGramsGround     float64 `json:"total_grams_ground"`
	ManuallyGroundGrams  float64 `json:"manually_ground_grams"`
	TotalGramsWithManual float64 `json:"total_grams_with_manual"`
	TotalKilos           float64 `json:"total_kilos"`
}
