package models

import (
	"time"
)

// PriceUnit determines how a variant's base price scales.
type PriceUnit string

const (
	PriceUnitPerEvent  PriceUnit = "per_event"
	PriceUnitPerPerson PriceUnit = "per_person"
	PriceUnitPerHour   PriceUnit = "per_hour"
	PriceUnitPerDay    PriceUnit = "per_day"
	PriceUnitPerItem   PriceUnit = "per_item"
)

// InventoryKind classifies how a variant's stock is tracked.
type InventoryKind string

const (
	InventoryUnlimited InventoryKind = "unlimited"
	InventoryLimited   InventoryKind = "limited"
	InventoryTimeBased InventoryKind = "time_based"
)

// RuleType identifies which situational parameter a pricing rule inspects.
type RuleType string

const (
	RuleTypeAudience  RuleType = "audience"
	RuleTypeDistance  RuleType = "distance"
	RuleTypeDuration  RuleType = "duration"
	RuleTypeKosher    RuleType = "kosher"
	RuleTypeQuantity  RuleType = "quantity"
	RuleTypeSetupTime RuleType = "setup_time"
	RuleTypeDayOfWeek RuleType = "day_of_week"
)

// ModifierType determines how a pricing rule's modifier is applied.
type ModifierType string

const (
	ModifierFixed      ModifierType = "fixed"
	ModifierPercentage ModifierType = "percentage"
	ModifierPerUnit    ModifierType = "per_unit"
)

// Domain Models

// ServiceAvailability is the registry record for one bookable service.
// CurrentBookings never exceeds MaxConcurrentBookings.
type ServiceAvailability struct {
	ServiceID             string     `json:"service_id"`
	ProviderID            string     `json:"provider_id"`
	IsAvailable           bool       `json:"is_available"`
	HasCalendar           bool       `json:"has_calendar"`
	LockUntil             *time.Time `json:"lock_until,omitempty"`
	LockedBy              string     `json:"locked_by,omitempty"`
	MaxConcurrentBookings int        `json:"max_concurrent_bookings"`
	CurrentBookings       int        `json:"current_bookings"`
}

// AvailabilityConfig carries the operator-supplied settings for Register.
// Zero values fall back to the registry defaults.
type AvailabilityConfig struct {
	IsAvailable           bool `json:"is_available"`
	HasCalendar           bool `json:"has_calendar"`
	MaxConcurrentBookings int  `json:"max_concurrent_bookings"`
}

// SoftHold is a time-boxed reservation against a service's capacity.
// Holds are append-only history: once released or expired they stay
// inactive forever.
type SoftHold struct {
	ID         string    `json:"id"`
	ServiceID  string    `json:"service_id"`
	ProviderID string    `json:"provider_id"`
	HolderID   string    `json:"holder_id"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	IsActive   bool      `json:"is_active"`
}

// AvailabilityStats summarizes the registry and hold state.
type AvailabilityStats struct {
	TotalServices        int `json:"total_services"`
	AvailableServices    int `json:"available_services"`
	ServicesWithCalendar int `json:"services_with_calendar"`
	ActiveHolds          int `json:"active_holds"`
	LockedServices       int `json:"locked_services"`
}

// Pricing Models

// VariantInventory describes the stock model of a product variant.
type VariantInventory struct {
	Kind           InventoryKind `json:"kind"`
	CurrentStock   int           `json:"current_stock,omitempty"`
	MaxStock       int           `json:"max_stock,omitempty"`
	ReorderLevel   int           `json:"reorder_level,omitempty"`
	MaxConcurrent  int           `json:"max_concurrent,omitempty"`
	CooldownPeriod int           `json:"cooldown_period,omitempty"`
}

// SetupRequirements captures physical setup constraints of a variant.
type SetupRequirements struct {
	SetupMinutes    int    `json:"setup_minutes"`
	TeardownMinutes int    `json:"teardown_minutes"`
	RequiresCrew    bool   `json:"requires_crew"`
	SpaceNotes      string `json:"space_notes,omitempty"`
	PowerNotes      string `json:"power_notes,omitempty"`
}

// PricingRule is a conditional price modifier. Rules are evaluated
// independently and summed; input order only affects breakdown order.
type PricingRule struct {
	Type         RuleType     `json:"type"`
	Condition    string       `json:"condition"`
	Modifier     float64      `json:"modifier"`
	ModifierType ModifierType `json:"modifier_type"`
	Description  string       `json:"description"`
	IsActive     bool         `json:"is_active"`
}

// ProductVariant is one sellable configuration of a service. It is
// treated as immutable for the duration of a pricing call.
type ProductVariant struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	BasePrice         float64            `json:"base_price"`
	PriceUnit         PriceUnit          `json:"price_unit"`
	Inventory         VariantInventory   `json:"inventory"`
	MaxQuantity       int                `json:"max_quantity,omitempty"`
	SetupRequirements *SetupRequirements `json:"setup_requirements,omitempty"`
	PricingRules      []PricingRule      `json:"pricing_rules,omitempty"`
}

// Commission is the platform fee descriptor. For percentage commissions
// Rate is a fraction (0.05 means 5%); for fixed commissions it is the
// flat amount.
type Commission struct {
	Rate                   float64 `json:"rate"`
	Type                   string  `json:"type"`
	IncludesProcessingFees bool    `json:"includes_processing_fees"`
}

const (
	CommissionTypePercentage = "percentage"
	CommissionTypeFixed      = "fixed"
)

// PricingParams are the situational inputs to a price calculation.
type PricingParams struct {
	AudienceSize   int       `json:"audience_size"`
	TravelDistance float64   `json:"travel_distance"`
	DurationHours  float64   `json:"duration_hours"`
	Quantity       int       `json:"quantity"`
	IsKosher       bool      `json:"is_kosher"`
	EventDate      time.Time `json:"event_date,omitempty"`
}

// AppliedRule records one rule's signed contribution to a quote.
type AppliedRule struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// PriceQuote is the result of a pricing calculation.
type PriceQuote struct {
	BaseTotal          float64       `json:"base_total"`
	AppliedRules       []AppliedRule `json:"applied_rules"`
	Subtotal           float64       `json:"subtotal"`
	Commission         float64       `json:"commission"`
	CommissionIncluded bool          `json:"commission_included"`
	FinalPrice         float64       `json:"final_price"`
	Currency           string        `json:"currency"`
}

// Catalog Models

// Category is a top-level catalog node.
type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories,omitempty"`
}

// Subcategory groups providers under a category.
type Subcategory struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
}

// Provider offers one or more services in a subcategory.
type Provider struct {
	ID            string  `json:"id"`
	SubcategoryID string  `json:"subcategory_id"`
	Name          string  `json:"name"`
	City          string  `json:"city,omitempty"`
	Rating        float64 `json:"rating"`
	Verified      bool    `json:"verified"`
}

// Service is a bookable catalog entry.
type Service struct {
	ID                    string   `json:"id"`
	ProviderID            string   `json:"provider_id"`
	CategoryID            string   `json:"category_id"`
	SubcategoryID         string   `json:"subcategory_id"`
	Name                  string   `json:"name"`
	Description           string   `json:"description,omitempty"`
	Price                 float64  `json:"price"`
	Rating                float64  `json:"rating"`
	Featured              bool     `json:"featured"`
	Available             bool     `json:"available"`
	HasCalendar           bool     `json:"has_calendar"`
	MaxConcurrentBookings int      `json:"max_concurrent_bookings,omitempty"`
	Tags                  []string `json:"tags,omitempty"`
	ConceptTags           []string `json:"concept_tags,omitempty"`
}

// Catalog is one immutable snapshot of the full hierarchy.
type Catalog struct {
	BuiltAt   time.Time            `json:"built_at"`
	Hierarchy []Category           `json:"hierarchy"`
	Providers map[string]*Provider `json:"providers"`
	Services  []Service            `json:"services"`
}

// Search Models

// SearchFilters narrows a catalog search before free-text matching.
type SearchFilters struct {
	CategoryID    string   `json:"category_id,omitempty"`
	SubcategoryID string   `json:"subcategory_id,omitempty"`
	MinPrice      *float64 `json:"min_price,omitempty"`
	MaxPrice      *float64 `json:"max_price,omitempty"`
	OnlyAvailable bool     `json:"only_available,omitempty"`
	ConceptTags   []string `json:"concept_tags,omitempty"`
}

// Diagnostics Models

// IntegrityStats counts the provider/service link health of a snapshot.
type IntegrityStats struct {
	Categories       int `json:"categories"`
	Providers        int `json:"providers"`
	Services         int `json:"services"`
	OrphanedServices int `json:"orphaned_services"`
	EmptyProviders   int `json:"empty_providers"`
}

// IntegrityReport is the read-only result of a catalog integrity check.
type IntegrityReport struct {
	IsHealthy       bool           `json:"is_healthy"`
	Stats           IntegrityStats `json:"stats"`
	Recommendations []string       `json:"recommendations"`
}
