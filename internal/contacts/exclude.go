package contacts

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// LoadExcluded reads one number per line (extra comma separated columns are
// ignored) and returns the normalized set. A missing file means no exclusions.
func LoadExcluded(path, region string) (map[string]struct{}, error) {
	excluded := make(map[string]struct{})
	if path == "" {
		return excluded, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return excluded, nil
		}
		return nil, errors.Wrap(err, "failed to open exclude file")
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, ','); i >= 0 {
			line = line[:i]
		}
		if n := Normalize(line, region); n != "" {
			excluded[n] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read exclude file")
	}
	return excluded, nil
}
