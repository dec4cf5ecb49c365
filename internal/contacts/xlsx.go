package contacts

import (
	"fmt"
	"sort"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/pkg/errors"
)

// LoadXLSX reads contacts from the first worksheet.
func LoadXLSX(filePath, region string) ([]Contact, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open spreadsheet")
	}

	sheets := f.GetSheetMap()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet %s has no worksheets", filePath)
	}
	indexes := make([]int, 0, len(sheets))
	for idx := range sheets {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	contacts, err := fromRows(f.GetRows(sheets[indexes[0]]), region)
	if err != nil {
		return nil, errors.Wrapf(err, "sheet %q", sheets[indexes[0]])
	}
	return contacts, nil
}
