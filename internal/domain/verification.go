package domain

import (
	"sort"
	"sync"
)

// MatchType records which strategy, if any, located an expected value
type MatchType string

const (
	MatchExact      MatchType = "exact"
	MatchNormalized MatchType = "normalized"
	MatchPartial    MatchType = "partial"
	MatchNotFound   MatchType = "not_found"
)

// Product status labels used by reports
const (
	StatusComplete = "COMPLETE"
	StatusPartial  = "PARTIAL"
	StatusNoMatch  = "NO_MATCH"
)

// ExpectedField is one attribute of product master data that must appear on the layout
type ExpectedField struct {
	FieldName     string `json:"field"`
	ExpectedValue string `json:"expected"`
}

// ExpectedFields keeps fields in the order they were read from the spreadsheet
type ExpectedFields []ExpectedField

// Names returns the field names in order
func (f ExpectedFields) Names() []string {
	names := make([]string, 0, len(f))
	for _, field := range f {
		names = append(names, field.FieldName)
	}
	return names
}

// FieldResult is the verification outcome of a single field
type FieldResult struct {
	FieldName     string    `json:"field"`
	ExpectedValue string    `json:"expected"`
	Found         bool      `json:"found"`
	MatchType     MatchType `json:"matchType"`
	MatchedText   string    `json:"matchedText,omitempty"`
}

// ProductVerificationResult aggregates field results for one layout file
type ProductVerificationResult struct {
	ItemNumber    string        `json:"itemNumber"`
	LayoutFile    string        `json:"layoutFile"`
	TotalFields   int           `json:"totalFields"`
	MatchedFields int           `json:"matchedFields"`
	MissingFields int           `json:"missingFields"`
	FieldResults  []FieldResult `json:"fieldResults"`
}

// NewProductVerificationResult creates an empty result sized for totalFields
func NewProductVerificationResult(itemNumber, layoutFile string, totalFields int) *ProductVerificationResult {
	return &ProductVerificationResult{
		ItemNumber:   itemNumber,
		LayoutFile:   layoutFile,
		TotalFields:  totalFields,
		FieldResults: make([]FieldResult, 0, totalFields),
	}
}

// Record appends a field result and updates the matched/missing counters
func (r *ProductVerificationResult) Record(fr FieldResult) {
	r.FieldResults = append(r.FieldResults, fr)
	if fr.Found {
		r.MatchedFields++
	} else {
		r.MissingFields++
	}
}

// SuccessRate returns the percentage of fields found, 0 when nothing was checked
func (r *ProductVerificationResult) SuccessRate() float64 {
	if r.TotalFields == 0 {
		return 0
	}
	return float64(r.MatchedFields) / float64(r.TotalFields) * 100
}

// IsComplete reports whether no field is missing.
// A result with zero fields is complete under this rule.
func (r *ProductVerificationResult) IsComplete() bool {
	return r.MissingFields == 0
}

// Status returns StatusComplete or StatusPartial
func (r *ProductVerificationResult) Status() string {
	if r.IsComplete() {
		return StatusComplete
	}
	return StatusPartial
}

// MissingFieldNames lists fields that were not found, in field order
func (r *ProductVerificationResult) MissingFieldNames() []string {
	var names []string
	for _, fr := range r.FieldResults {
		if !fr.Found {
			names = append(names, fr.FieldName)
		}
	}
	return names
}

// FoundFieldNames lists fields that were found, in field order
func (r *ProductVerificationResult) FoundFieldNames() []string {
	var names []string
	for _, fr := range r.FieldResults {
		if fr.Found {
			names = append(names, fr.FieldName)
		}
	}
	return names
}

// FieldPresence projects the result to field name -> found, dropping match details
func (r *ProductVerificationResult) FieldPresence() map[string]bool {
	presence := make(map[string]bool, len(r.FieldResults))
	for _, fr := range r.FieldResults {
		presence[fr.FieldName] = fr.Found
	}
	return presence
}

// VerificationSummary accumulates results across a batch run.
// AddResult and AddUnmatchedLayout are the only mutations and are safe to call
// from several goroutines. Read the exported fields once the batch is done.
type VerificationSummary struct {
	TotalProducts       int                          `json:"totalProducts"`
	ProductsVerified    int                          `json:"productsVerified"`
	ProductsComplete    int                          `json:"productsComplete"`
	ProductsPartial     int                          `json:"productsPartial"`
	LayoutsWithoutMatch int                          `json:"layoutsWithoutMatch"`
	Results             []*ProductVerificationResult `json:"results"`
	UnmatchedLayouts    []string                     `json:"unmatchedLayouts"`

	mu sync.Mutex
}

// NewVerificationSummary creates an empty summary for a catalog of totalProducts
func NewVerificationSummary(totalProducts int) *VerificationSummary {
	return &VerificationSummary{TotalProducts: totalProducts}
}

// AddResult records one verification event. Calling it twice for the same
// layout counts it twice.
func (s *VerificationSummary) AddResult(result *ProductVerificationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Results = append(s.Results, result)
	s.ProductsVerified++
	if result.IsComplete() {
		s.ProductsComplete++
	} else {
		s.ProductsPartial++
	}
}

// AddUnmatchedLayout records a layout file with no product master data entry
func (s *VerificationSummary) AddUnmatchedLayout(filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.UnmatchedLayouts = append(s.UnmatchedLayouts, filename)
	s.LayoutsWithoutMatch++
}

// OverallSuccessRate returns the percentage of verified products that are complete.
// An empty batch reports 0.
func (s *VerificationSummary) OverallSuccessRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ProductsVerified == 0 {
		return 0
	}
	return float64(s.ProductsComplete) / float64(s.ProductsVerified) * 100
}

// SortByLayout orders results and unmatched layouts by file name
func (s *VerificationSummary) SortByLayout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	sort.SliceStable(s.Results, func(i, j int) bool {
		return s.Results[i].LayoutFile < s.Results[j].LayoutFile
	})
	sort.Strings(s.UnmatchedLayouts)
}

// CompleteResults returns the results with every field found
func (s *VerificationSummary) CompleteResults() []*ProductVerificationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*ProductVerificationResult
	for _, r := range s.Results {
		if r.IsComplete() {
			out = append(out, r)
		}
	}
	return out
}

// PartialResults returns the results with at least one missing field
func (s *VerificationSummary) PartialResults() []*ProductVerificationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*ProductVerificationResult
	for _, r := range s.Results {
		if !r.IsComplete() {
			out = append(out, r)
		}
	}
	return out
}
