package usecase

import (
	"testing"

	"github.com/layoutverifier/backend/internal/domain"
)

const fryingPanLayout = `199034 - FRYING PAN DELUXE
Deluxe Frying Pan model 2
EAN 5901234123457
Made in China`

func TestProductVerifierVerify(t *testing.T) {
	verifier := NewProductVerifier(VerifierConfig{})

	t.Run("counts matched and missing fields", func(t *testing.T) {
		fields := domain.ExpectedFields{
			{FieldName: "Name ENG", ExpectedValue: "Frying Pan Deluxe"},
			{FieldName: "EAN", ExpectedValue: "590-1234-123457"},
			{FieldName: "origin (next to EAN/barcode)", ExpectedValue: "made in china"},
			{FieldName: "Batch no:", ExpectedValue: "B-2024-11"},
		}

		result := verifier.Verify("199034", "199034 - FRYING PAN.ai", fields, fryingPanLayout)

		if result.ItemNumber != "199034" {
			t.Errorf("ItemNumber = %q, want 199034", result.ItemNumber)
		}
		if result.LayoutFile != "199034 - FRYING PAN.ai" {
			t.Errorf("LayoutFile = %q", result.LayoutFile)
		}
		if result.TotalFields != 4 {
			t.Errorf("TotalFields = %d, want 4", result.TotalFields)
		}
		if result.MatchedFields != 3 {
			t.Errorf("MatchedFields = %d, want 3", result.MatchedFields)
		}
		if result.MissingFields != 1 {
			t.Errorf("MissingFields = %d, want 1", result.MissingFields)
		}
		if result.TotalFields != result.MatchedFields+result.MissingFields {
			t.Error("TotalFields must equal MatchedFields + MissingFields")
		}
		if result.IsComplete() {
			t.Error("result with a missing field should not be complete")
		}
		if rate := result.SuccessRate(); rate != 75 {
			t.Errorf("SuccessRate = %v, want 75", rate)
		}
	})

	t.Run("keeps field order and match types", func(t *testing.T) {
		fields := domain.ExpectedFields{
			{FieldName: "Batch no:", ExpectedValue: "B-2024-11"},
			{FieldName: "Item#", ExpectedValue: "199034"},
			{FieldName: "EAN", ExpectedValue: "590-1234-123457"},
			{FieldName: "Name ENG", ExpectedValue: "Frying Pan Deluxe"},
			{FieldName: "origin", ExpectedValue: "made in china"},
		}

		result := verifier.Verify("199034", "layout.ai", fields, fryingPanLayout)

		want := []struct {
			field     string
			found     bool
			matchType domain.MatchType
		}{
			{"Batch no:", false, domain.MatchNotFound},
			{"Item#", true, domain.MatchExact},
			{"EAN", true, domain.MatchNormalized},
			{"Name ENG", true, domain.MatchNormalized},
			{"origin", true, domain.MatchNormalized},
		}

		if len(result.FieldResults) != len(want) {
			t.Fatalf("len(FieldResults) = %d, want %d", len(result.FieldResults), len(want))
		}
		for i, w := range want {
			fr := result.FieldResults[i]
			if fr.FieldName != w.field {
				t.Errorf("FieldResults[%d].FieldName = %q, want %q", i, fr.FieldName, w.field)
			}
			if fr.Found != w.found {
				t.Errorf("%s: Found = %v, want %v", w.field, fr.Found, w.found)
			}
			if fr.MatchType != w.matchType {
				t.Errorf("%s: MatchType = %v, want %v", w.field, fr.MatchType, w.matchType)
			}
			if fr.ExpectedValue != fields[i].ExpectedValue {
				t.Errorf("%s: ExpectedValue = %q, want %q", w.field, fr.ExpectedValue, fields[i].ExpectedValue)
			}
		}
	})

	t.Run("zero fields is reported as complete", func(t *testing.T) {
		result := verifier.Verify("1", "1.ai", nil, fryingPanLayout)

		if result.TotalFields != 0 || result.MatchedFields != 0 || result.MissingFields != 0 {
			t.Errorf("counts = %d/%d/%d, want all zero", result.TotalFields, result.MatchedFields, result.MissingFields)
		}
		if !result.IsComplete() {
			t.Error("a product with nothing to verify counts as complete")
		}
		if result.SuccessRate() != 0 {
			t.Errorf("SuccessRate = %v, want 0", result.SuccessRate())
		}
	})

	t.Run("empty layout text misses every field", func(t *testing.T) {
		fields := domain.ExpectedFields{
			{FieldName: "EAN", ExpectedValue: "5901234123457"},
			{FieldName: "Name ENG", ExpectedValue: "Frying Pan"},
		}

		result := verifier.Verify("199034", "blank.ai", fields, "")

		if result.MissingFields != 2 {
			t.Errorf("MissingFields = %d, want 2", result.MissingFields)
		}
		for _, fr := range result.FieldResults {
			if fr.MatchType != domain.MatchNotFound || fr.MatchedText != "" {
				t.Errorf("%s: got %v %q, want not_found with empty text", fr.FieldName, fr.MatchType, fr.MatchedText)
			}
		}
	})

	t.Run("debug logging does not change results", func(t *testing.T) {
		fields := domain.ExpectedFields{{FieldName: "EAN", ExpectedValue: "5901234123457"}}
		quiet := verifier.Verify("199034", "a.ai", fields, fryingPanLayout)
		loud := NewProductVerifier(VerifierConfig{EnableDebugLogging: true}).Verify("199034", "a.ai", fields, fryingPanLayout)

		if quiet.FieldResults[0] != loud.FieldResults[0] {
			t.Errorf("results differ: %+v vs %+v", quiet.FieldResults[0], loud.FieldResults[0])
		}
	})
}
