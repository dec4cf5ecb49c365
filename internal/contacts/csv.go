package contacts

import (
	"os"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

// LoadCSV reads a comma separated sheet. Rows keep the header's column
// order, which is what the column lookup relies on.
func LoadCSV(filePath, region string) ([]Contact, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	records, err := gocsv.LazyCSVReader(file).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV file")
	}
	return fromRows(records, region)
}
