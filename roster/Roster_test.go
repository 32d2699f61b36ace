package roster

import (
	"os"
	"path/filepath"
	"testing"

	"face-attendance/model"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEncoder returns canned descriptors keyed by file name.
type fakeEncoder struct {
	descriptors map[string]model.Descriptor
	errs        map[string]error
	calls       []string
}

func (f *fakeEncoder) EncodeFile(path string) (model.Descriptor, error) {
	base := filepath.Base(path)
	f.calls = append(f.calls, base)
	if err, ok := f.errs[base]; ok {
		return model.Descriptor{}, err
	}
	return f.descriptors[base], nil
}

func descriptorWith(v float32) model.Descriptor {
	var d model.Descriptor
	d[0] = v
	return d
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o644))
	return path
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people.yaml")
	content := "- name: Jiří\n  image: jiri.jpg\n- name: monu\n  image: /abs/monu.jpg\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	people, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []model.Person{
		{Name: "Jiří", Image: "jiri.jpg"},
		{Name: "monu", Image: "/abs/monu.jpg"},
	}, people)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestResolve(t *testing.T) {
	people := []model.Person{
		{Name: " Jiří ", Image: "jiri.jpg"},
		{Name: "jiri", Image: "other.jpg"},
		{Name: "monu", Image: "/abs/monu.jpg"},
		{Name: "", Image: "nobody.jpg"},
		{Name: "rohan", Image: ""},
	}

	resolved := Resolve(people, "/data")

	assert.Equal(t, []model.Person{
		{Name: "Jiří", Image: filepath.Join("/data", "jiri.jpg")},
		{Name: "monu", Image: "/abs/monu.jpg"},
	}, resolved)
}

func TestFoldName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jiří", "jiri"},
		{"  Rohan ", "rohan"},
		{"Zoë", "zoe"},
		{"monu", "monu"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FoldName(tt.in))
		})
	}
}

func TestLoadKnownFaces(t *testing.T) {
	dir := t.TempDir()
	monu := touch(t, dir, "monu.jpg")
	blank := touch(t, dir, "blank.jpg")
	broken := touch(t, dir, "broken.jpg")
	rohan := touch(t, dir, "rohan.jpg")

	enc := &fakeEncoder{
		descriptors: map[string]model.Descriptor{
			"monu.jpg":  descriptorWith(1),
			"rohan.jpg": descriptorWith(2),
		},
		errs: map[string]error{
			"blank.jpg":  model.ErrNoFace,
			"broken.jpg": errors.New("corrupt jpeg"),
		},
	}
	people := []model.Person{
		{Name: "monu", Image: monu},
		{Name: "ghost", Image: filepath.Join(dir, "ghost.jpg")},
		{Name: "blank", Image: blank},
		{Name: "broken", Image: broken},
		{Name: "rohan", Image: rohan},
	}

	known, err := LoadKnownFaces(enc, people)
	require.NoError(t, err)

	assert.Equal(t, []string{"monu", "rohan"}, known.Names)
	assert.Equal(t, []model.Descriptor{descriptorWith(1), descriptorWith(2)}, known.Descriptors)
	// the missing file never reaches the encoder
	assert.Equal(t, []string{"monu.jpg", "blank.jpg", "broken.jpg", "rohan.jpg"}, enc.calls)
}

func TestLoadKnownFaces_NoneUsable(t *testing.T) {
	dir := t.TempDir()
	blank := touch(t, dir, "blank.jpg")
	enc := &fakeEncoder{errs: map[string]error{"blank.jpg": model.ErrNoFace}}

	known, err := LoadKnownFaces(enc, []model.Person{
		{Name: "blank", Image: blank},
		{Name: "ghost", Image: filepath.Join(dir, "ghost.jpg")},
	})

	assert.Nil(t, known)
	assert.True(t, errors.Is(err, ErrNoKnownFaces))
}

func TestDisplayLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"monu", "monu"},
		{"Jiří", "Jiri"},
		{"Unknown", "Unknown"},
		{"李", "?"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayLabel(tt.in))
		})
	}
}
