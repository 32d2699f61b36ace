// Package roster holds the people expected to attend: their reference images,
// the face descriptors computed from those images and the set of names not
// yet marked present.
package roster

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"face-attendance/model"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

var log = logrus.WithField("component", "ROSTER")

// ReadFile reads a YAML list of {name, image} entries.
func ReadFile(path string) ([]model.Person, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to read roster %s", path)
	}
	var people []model.Person
	if err := yaml.Unmarshal(data, &people); err != nil {
		return nil, errors.Wrapf(err, "fail to parse roster %s", path)
	}
	return people, nil
}

// Resolve makes image paths absolute against dataDir and drops entries with
// an empty name or image, or a name already seen (compared with FoldName).
func Resolve(people []model.Person, dataDir string) []model.Person {
	seen := make(map[string]bool, len(people))
	resolved := make([]model.Person, 0, len(people))
	for _, p := range people {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" || p.Image == "" {
			log.Warnln("Skipping roster entry with empty name or image:", p)
			continue
		}
		key := FoldName(p.Name)
		if seen[key] {
			log.Warnln("Skipping duplicate roster entry:", p.Name)
			continue
		}
		seen[key] = true
		if !filepath.IsAbs(p.Image) {
			p.Image = filepath.Join(dataDir, p.Image)
		}
		resolved = append(resolved, p)
	}
	return resolved
}

// RemoveDiacritics turns "Jiří" into "Jiri".
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// FoldName is the comparison key for names: no diacritics, lower case.
func FoldName(name string) string {
	return strings.ToLower(RemoveDiacritics(strings.TrimSpace(name)))
}

// Images returns the image paths of people in roster order.
func Images(people []model.Person) []string {
	images := make([]string, len(people))
	for i, p := range people {
		images[i] = p.Image
	}
	return images
}

// DisplayLabel folds name to printable ASCII for the Hershey fonts used on
// the preview window, replacing anything left over with '?'.
func DisplayLabel(name string) string {
	folded := []rune(RemoveDiacritics(name))
	for i, r := range folded {
		if r < 0x20 || r > 0x7e {
			folded[i] = '?'
		}
	}
	return string(folded)
}
