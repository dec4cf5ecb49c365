// Package contacts loads campaign recipients from a spreadsheet or CSV file
// and normalizes their phone numbers.
package contacts

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

type Contact struct {
	Name       string
	Number     string // as written in the sheet
	Normalized string // E.164 digits without '+', used as the campaign key
	Nickname   string
	Fields     map[string]string // extra columns, keyed by header
}

var (
	nameHeaders     = []string{"name"}
	numberHeaders   = []string{"whatsapp number", "whatsapp_number", "phone_number", "phone", "number"}
	nicknameHeaders = []string{"nick_name", "nickname", "nick name"}
)

// Load picks the reader from the file extension.
func Load(path, region string) ([]Contact, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadXLSX(path, region)
	case ".csv":
		return LoadCSV(path, region)
	default:
		return nil, fmt.Errorf("unsupported contact file %s (want .xlsx or .csv)", path)
	}
}

// fromRows turns a header row plus data rows into contacts. Rows without a
// number are skipped.
func fromRows(rows [][]string, region string) ([]Contact, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("contact sheet is empty")
	}

	header := make([]string, len(rows[0]))
	for i, col := range rows[0] {
		header[i] = strings.TrimSpace(col)
	}
	nameIdx := findColumn(header, nameHeaders)
	numberIdx := findColumn(header, numberHeaders)
	nickIdx := findColumn(header, nicknameHeaders)
	if numberIdx == -1 {
		return nil, fmt.Errorf("contact sheet must contain a 'WhatsApp Number' column")
	}

	contacts := make([]Contact, 0, len(rows)-1)
	for _, row := range rows[1:] {
		raw := strings.TrimSuffix(cell(row, numberIdx), ".0")
		if raw == "" {
			continue
		}

		contact := Contact{
			Name:       cell(row, nameIdx),
			Number:     raw,
			Normalized: Normalize(raw, region),
			Nickname:   cell(row, nickIdx),
			Fields:     make(map[string]string),
		}
		for j, col := range header {
			if j == nameIdx || j == numberIdx || j == nickIdx || col == "" {
				continue
			}
			contact.Fields[col] = cell(row, j)
		}
		contacts = append(contacts, contact)
	}
	return contacts, nil
}

// Normalize returns the number as E.164 digits without the leading '+'.
// Numbers already carrying a country code are kept as such; local numbers
// get the default region's code. Anything unparseable falls back to its digits.
func Normalize(raw, region string) string {
	digits := onlyDigits(raw)
	if digits == "" {
		return ""
	}

	candidates := []struct{ number, region string }{
		{"+" + digits, ""},
		{digits, strings.ToUpper(region)},
	}
	// Ten digits or fewer is a national number in every region we target
	if len(digits) <= 10 {
		candidates[0], candidates[1] = candidates[1], candidates[0]
	}
	if strings.HasPrefix(strings.TrimSpace(raw), "+") || strings.HasPrefix(digits, "00") {
		digits = strings.TrimPrefix(digits, "00")
		candidates = candidates[:1]
		candidates[0].number, candidates[0].region = "+"+digits, ""
	}

	for _, c := range candidates {
		num, err := phonenumbers.Parse(c.number, c.region)
		if err != nil || !phonenumbers.IsValidNumber(num) {
			continue
		}
		return strings.TrimPrefix(phonenumbers.Format(num, phonenumbers.E164), "+")
	}
	return digits
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func findColumn(header []string, names []string) int {
	for i, col := range header {
		lower := strings.ToLower(col)
		for _, name := range names {
			if lower == name {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
