package model

import "strings"

// Category classifies a billing issue. The set is closed: anything a
// producer emits outside it normalizes to CategoryOther.
type Category string

const (
	// CategoryDuplicateCharge indicates the same service billed more than once.
	CategoryDuplicateCharge Category = "duplicate_charge"
	// CategoryIncorrectInsurance indicates patient responsibility that does not
	// match the plan terms applied to the insurer's allowed amount.
	CategoryIncorrectInsurance Category = "incorrect_insurance"
	// CategoryMissingInsuranceResponse indicates a billed service with no EOB
	// or receipt on file.
	CategoryMissingInsuranceResponse Category = "missing_insurance_response"
	// CategoryUpcoding indicates a service billed under a more expensive code
	// than was performed.
	CategoryUpcoding Category = "upcoding"
	// CategoryUnbundling indicates a bundled service billed as separate codes.
	CategoryUnbundling Category = "unbundling"
	// CategoryCodingError indicates any other procedure-code mistake.
	CategoryCodingError Category = "coding_error"
	// CategoryBalanceBilling indicates billing the patient beyond the allowed amount.
	CategoryBalanceBilling Category = "balance_billing"
	// CategoryPricingError indicates a charge inconsistent with published rates.
	CategoryPricingError Category = "pricing_error"
	// CategoryPhantomCharge indicates a charge for a service never rendered.
	CategoryPhantomCharge Category = "phantom_charge"
	// CategoryAgeInappropriate indicates a service generally inappropriate for
	// the patient's age.
	CategoryAgeInappropriate Category = "age_inappropriate"
	// CategoryAgeInappropriateProcedure indicates an age-inappropriate procedure.
	CategoryAgeInappropriateProcedure Category = "age_inappropriate_procedure"
	// CategoryAgeInappropriateScreening indicates an age-inappropriate screening.
	CategoryAgeInappropriateScreening Category = "age_inappropriate_screening"
	// CategoryGenderInappropriate indicates a service inconsistent with the
	// patient's recorded sex.
	CategoryGenderInappropriate Category = "gender_inappropriate"
	// CategoryGenderInappropriateProcedure indicates a gender-inappropriate procedure.
	CategoryGenderInappropriateProcedure Category = "gender_inappropriate_procedure"
	// CategoryOther collects anything that does not normalize to a known category.
	CategoryOther Category = "other"
)

// Parent category names used for small-sample rollups.
const (
	ParentAgeInappropriateService    = "age_inappropriate_service"
	ParentGenderInappropriateService = "gender_inappropriate_service"
	ParentImproperCoding             = "improper_coding"
)

// validCategories is the closed enum the normalizer validates against.
var validCategories = map[Category]struct{}{
	CategoryDuplicateCharge:              {},
	CategoryIncorrectInsurance:           {},
	CategoryMissingInsuranceResponse:     {},
	CategoryUpcoding:                     {},
	CategoryUnbundling:                   {},
	CategoryCodingError:                  {},
	CategoryBalanceBilling:               {},
	CategoryPricingError:                 {},
	CategoryPhantomCharge:                {},
	CategoryAgeInappropriate:             {},
	CategoryAgeInappropriateProcedure:    {},
	CategoryAgeInappropriateScreening:    {},
	CategoryGenderInappropriate:          {},
	CategoryGenderInappropriateProcedure: {},
	CategoryOther:                        {},
}

// ParentCategories groups sparse leaf categories under a statistically
// stable parent. Leaves outside any group are reported standalone.
var ParentCategories = map[string][]Category{
	ParentAgeInappropriateService: {
		CategoryAgeInappropriate,
		CategoryAgeInappropriateProcedure,
		CategoryAgeInappropriateScreening,
	},
	ParentGenderInappropriateService: {
		CategoryGenderInappropriate,
		CategoryGenderInappropriateProcedure,
	},
	ParentImproperCoding: {
		CategoryUpcoding,
		CategoryUnbundling,
		CategoryCodingError,
	},
}

// NormalizeCategory canonicalizes a free-form category string from any
// producer: lowercase, spaces and hyphens become underscores, then validate
// against the closed enum. Unrecognized values map to CategoryOther.
// Idempotent.
func NormalizeCategory(raw string) Category {
	folded := strings.ToLower(strings.TrimSpace(raw))
	folded = strings.ReplaceAll(folded, " ", "_")
	folded = strings.ReplaceAll(folded, "-", "_")

	category := Category(folded)
	if _, ok := validCategories[category]; !ok {
		return CategoryOther
	}
	return category
}

// Valid reports whether the category is a member of the closed enum.
func (c Category) Valid() bool {
	_, ok := validCategories[c]
	return ok
}
