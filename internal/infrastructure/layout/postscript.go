package layout

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// (text) with backslash escapes
	parenString = regexp.MustCompile(`\(([^()\\]*(?:\\.[^()\\]*)*)\)`)
	textObject  = regexp.MustCompile(`(?s)BT\s*(.*?)\s*ET`)
	showText    = regexp.MustCompile(`\(([^)]+)\)\s*Tj`)
)

var textOperators = map[string]bool{
	"Tm": true, "Td": true, "Tf": true, "Tj": true, "TJ": true, "cm": true,
	"re": true, "rg": true, "RG": true, "gs": true, "CS": true, "cs": true,
}

var postscriptUnescaper = strings.NewReplacer(
	`\n`, "\n",
	`\r`, "\r",
	`\t`, "\t",
	`\(`, "(",
	`\)`, ")",
	`\\`, `\`,
)

// postscriptText pulls readable strings out of raw Illustrator content:
// parenthesized PostScript strings and Tj operands inside BT/ET blocks
func postscriptText(content []byte) string {
	src := strings.ToValidUTF8(string(content), "")

	var parts []string
	for _, m := range parenString.FindAllStringSubmatch(src, -1) {
		text := postscriptUnescaper.Replace(m[1])
		if isReadable(text) {
			parts = append(parts, text)
		}
	}

	for _, block := range textObject.FindAllStringSubmatch(src, -1) {
		for _, m := range showText.FindAllStringSubmatch(block[1], -1) {
			text := postscriptUnescaper.Replace(m[1])
			if isReadable(text) {
				parts = append(parts, text)
			}
		}
	}

	return strings.Join(parts, " ")
}

// isReadable filters out binary runs and bare operators
func isReadable(text string) bool {
	runes := []rune(text)
	if len(runes) < 2 {
		return false
	}

	printable := 0
	for _, r := range runes {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}
	if float64(printable)/float64(len(runes)) < 0.8 {
		return false
	}

	return !textOperators[strings.TrimSpace(text)]
}
