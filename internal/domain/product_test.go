package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductVerificationFields(t *testing.T) {
	p := Product{
		ItemNumber: "199034",
		ItemColumn: "Item#",
		Columns:    []string{"Item#", "EAN", "Name ENG", "Batch no:", "origin"},
		Values: map[string]string{
			"Item#":     "199034",
			"EAN":       " 5901234123457 ",
			"Name ENG":  "Frying Pan",
			"Batch no:": "NaN",
			"origin":    "   ",
		},
	}

	fields := p.VerificationFields()

	assert.Equal(t, ExpectedFields{
		{FieldName: "EAN", ExpectedValue: "5901234123457"},
		{FieldName: "Name ENG", ExpectedValue: "Frying Pan"},
	}, fields)
	assert.Equal(t, []string{"EAN", "Name ENG"}, fields.Names())
}

func TestIsBlankCell(t *testing.T) {
	assert.True(t, IsBlankCell(""))
	assert.True(t, IsBlankCell("  "))
	assert.True(t, IsBlankCell("nan"))
	assert.True(t, IsBlankCell("NaN"))
	assert.False(t, IsBlankCell("0"))
	assert.False(t, IsBlankCell("banana"))
}

func TestSessionHasResult(t *testing.T) {
	s := &Session{Status: SessionComplete, ResultPath: "/tmp/out.xlsx"}
	assert.True(t, s.HasResult())

	s.Status = SessionError
	assert.False(t, s.HasResult())
}
