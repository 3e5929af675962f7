package usecase

import (
	"log/slog"

	"github.com/layoutverifier/backend/internal/domain"
)

// VerifierConfig holds configuration for the product verifier
type VerifierConfig struct {
	EnableDebugLogging bool
}

// ProductVerifier checks every expected field of a product against layout text
type ProductVerifier struct {
	enableDebugLogging bool
}

// NewProductVerifier creates a new product verifier with the given configuration
func NewProductVerifier(config VerifierConfig) *ProductVerifier {
	return &ProductVerifier{
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Verify matches each expected field against layoutText, in field order.
// Missing values are recorded in the result, never returned as errors.
func (v *ProductVerifier) Verify(
	itemNumber string,
	layoutFile string,
	fields domain.ExpectedFields,
	layoutText string,
) *domain.ProductVerificationResult {
	result := domain.NewProductVerificationResult(itemNumber, layoutFile, len(fields))

	normalized := Normalize(layoutText)

	for _, field := range fields {
		outcome := FindValueNormalized(field.ExpectedValue, layoutText, normalized)

		if v.enableDebugLogging {
			slog.Debug("field checked",
				"item_number", itemNumber,
				"layout", layoutFile,
				"field", field.FieldName,
				"found", outcome.Found,
				"match_type", outcome.MatchType,
			)
		}

		result.Record(domain.FieldResult{
			FieldName:     field.FieldName,
			ExpectedValue: field.ExpectedValue,
			Found:         outcome.Found,
			MatchType:     outcome.MatchType,
			MatchedText:   outcome.MatchedText,
		})
	}

	return result
}
