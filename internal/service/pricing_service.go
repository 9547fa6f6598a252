package service

import (
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/TahlesAi/tahles-sub000/internal/models"
)

// audienceStep is the head-count bucket per_unit audience modifiers
// scale by.
const audienceStep = 50

// hoursPerBillingDay converts an hour duration into billed days.
const hoursPerBillingDay = 8.0

// PricingService evaluates a product variant plus situational
// parameters into a final quote. It is pure: identical inputs always
// produce identical quotes, and no state is mutated, so calls may run
// fully in parallel.
type PricingService struct {
	commission models.Commission
	currency   string
}

// NewPricingService creates a pricing engine with the platform
// commission applied to every quote.
func NewPricingService(commission models.Commission) *PricingService {
	return &PricingService{
		commission: commission,
		currency:   "ILS",
	}
}

// Calculate produces a quote for the variant under the given
// parameters. Rules are evaluated independently in input order; each
// applied rule's signed contribution is recorded in the breakdown.
func (s *PricingService) Calculate(variant models.ProductVariant, params models.PricingParams) models.PriceQuote {
	base := s.baseTotal(variant, params)
	total := base

	applied := make([]models.AppliedRule, 0, len(variant.PricingRules))
	for _, rule := range variant.PricingRules {
		amount, ok := s.evaluateRule(rule, variant, params, total)
		if !ok {
			continue
		}
		total += amount
		applied = append(applied, models.AppliedRule{
			Description: rule.Description,
			Amount:      amount,
		})
	}

	if total < 0 {
		total = 0
	}

	commission := s.commissionAmount(total)
	final := total
	if s.commission.IncludesProcessingFees {
		final = total + commission
	}

	return models.PriceQuote{
		BaseTotal:          base,
		AppliedRules:       applied,
		Subtotal:           total,
		Commission:         commission,
		CommissionIncluded: s.commission.IncludesProcessingFees,
		FinalPrice:         final,
		Currency:           s.currency,
	}
}

// baseTotal scales the variant's base price by its price unit.
func (s *PricingService) baseTotal(variant models.ProductVariant, params models.PricingParams) float64 {
	switch variant.PriceUnit {
	case models.PriceUnitPerPerson:
		return variant.BasePrice * float64(params.AudienceSize)
	case models.PriceUnitPerHour:
		return variant.BasePrice * params.DurationHours
	case models.PriceUnitPerDay:
		return variant.BasePrice * math.Ceil(params.DurationHours/hoursPerBillingDay)
	case models.PriceUnitPerItem:
		return variant.BasePrice * float64(s.effectiveQuantity(variant, params.Quantity))
	default:
		return variant.BasePrice
	}
}

// effectiveQuantity clamps a per-item quantity to the variant's
// purchase and stock limits.
func (s *PricingService) effectiveQuantity(variant models.ProductVariant, quantity int) int {
	if quantity < 0 {
		quantity = 0
	}
	if variant.MaxQuantity > 0 && quantity > variant.MaxQuantity {
		quantity = variant.MaxQuantity
	}
	if variant.Inventory.Kind == models.InventoryLimited && quantity > variant.Inventory.CurrentStock {
		quantity = variant.Inventory.CurrentStock
	}
	return quantity
}

// evaluateRule returns the rule's signed contribution and whether it
// applies. Inactive rules and rules with unparseable conditions never
// apply.
func (s *PricingService) evaluateRule(rule models.PricingRule, variant models.ProductVariant, params models.PricingParams, runningTotal float64) (float64, bool) {
	if !rule.IsActive {
		return 0, false
	}

	switch rule.Type {
	case models.RuleTypeAudience:
		threshold, ok := parseThreshold(rule)
		if !ok || float64(params.AudienceSize) <= threshold {
			return 0, false
		}
		units := math.Ceil((float64(params.AudienceSize) - threshold) / audienceStep)
		return modifierAmount(rule, runningTotal, units), true

	case models.RuleTypeDistance:
		threshold, ok := parseThreshold(rule)
		if !ok || params.TravelDistance <= threshold {
			return 0, false
		}
		return modifierAmount(rule, runningTotal, params.TravelDistance-threshold), true

	case models.RuleTypeDuration:
		threshold, ok := parseThreshold(rule)
		if !ok || params.DurationHours <= threshold {
			return 0, false
		}
		return modifierAmount(rule, runningTotal, params.DurationHours-threshold), true

	case models.RuleTypeKosher:
		if !params.IsKosher || !strings.EqualFold(strings.TrimSpace(rule.Condition), "required") {
			return 0, false
		}
		return modifierAmount(rule, runningTotal, float64(params.AudienceSize)), true

	case models.RuleTypeQuantity:
		threshold, ok := parseThreshold(rule)
		if !ok || float64(params.Quantity) < threshold {
			return 0, false
		}
		// Quantity rules are volume discounts: their contribution is
		// subtracted from the running total.
		return -modifierAmount(rule, runningTotal, float64(params.Quantity)), true

	case models.RuleTypeSetupTime:
		if variant.SetupRequirements == nil {
			return 0, false
		}
		threshold, ok := parseThreshold(rule)
		if !ok {
			return 0, false
		}
		setupHours := float64(variant.SetupRequirements.SetupMinutes) / 60.0
		if setupHours <= threshold {
			return 0, false
		}
		return modifierAmount(rule, runningTotal, setupHours-threshold), true

	case models.RuleTypeDayOfWeek:
		if params.EventDate.IsZero() || !weekdayMatches(rule.Condition, params.EventDate.Weekday().String()) {
			return 0, false
		}
		return modifierAmount(rule, runningTotal, 1), true

	default:
		log.Debug().Str("rule_type", string(rule.Type)).Msg("Unknown pricing rule type skipped")
		return 0, false
	}
}

// modifierAmount turns a rule's modifier into a concrete amount.
// Percentage modifiers are percent values scaling the running total;
// per_unit modifiers scale by the rule-specific unit count.
func modifierAmount(rule models.PricingRule, runningTotal, units float64) float64 {
	switch rule.ModifierType {
	case models.ModifierPercentage:
		return runningTotal * rule.Modifier / 100.0
	case models.ModifierPerUnit:
		return rule.Modifier * units
	default:
		return rule.Modifier
	}
}

// commissionAmount computes the platform fee for the given total.
func (s *PricingService) commissionAmount(total float64) float64 {
	switch s.commission.Type {
	case models.CommissionTypeFixed:
		return s.commission.Rate
	default:
		return total * s.commission.Rate
	}
}

func parseThreshold(rule models.PricingRule) (float64, bool) {
	threshold, err := strconv.ParseFloat(strings.TrimSpace(rule.Condition), 64)
	if err != nil {
		log.Debug().
			Str("rule_type", string(rule.Type)).
			Str("condition", rule.Condition).
			Msg("Unparseable pricing rule condition, rule skipped")
		return 0, false
	}
	return threshold, true
}

func weekdayMatches(condition, weekday string) bool {
	for _, day := range strings.Split(condition, ",") {
		if strings.EqualFold(strings.TrimSpace(day), weekday) {
			return true
		}
	}
	return false
}
