// files is a package with the file and directory helpers used by kemonodl.
package files

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/flytam/filenamify"
)

const (
	// MaxFilenameLength is the byte limit applied to sanitized names.
	MaxFilenameLength = 200
	// MetadataFilename is the name of the post snapshot inside a post directory.
	MetadataFilename = "metadata.json"
	// PartialSuffix marks a file that is still being downloaded.
	PartialSuffix = ".incomplete"

	replacement = "_"
)

var (
	ErrEmpty       = errors.New("empty parameter provided")
	ErrNotDir      = errors.New("path exists and is not a directory")
	ErrInvalidJSON = errors.New("metadata is not valid json")
	ErrUnsafeName  = errors.New("file name is not a plain name inside its directory")
)

// Sanitize replaces characters that are not allowed in file names with an underscore
// and trims trailing dots and spaces. The result may be empty.
func Sanitize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	str, err := filenamify.Filenamify(name, filenamify.Options{
		Replacement: replacement,
		MaxLength:   MaxFilenameLength,
	})
	if err != nil {
		return ""
	}
	if len(str) > MaxFilenameLength {
		str = str[:MaxFilenameLength]
	}
	// Byte truncation may split a rune.
	for !utf8.ValidString(str) {
		str = str[:len(str)-1]
	}
	return strings.TrimRight(str, ". ")
}

// DirName returns the sanitized title, or the sanitized fallback when nothing is left of the title.
func DirName(title, fallback string) string {
	if name := Sanitize(title); name != "" {
		return name
	}
	return Sanitize(fallback)
}

// CheckName rejects names that would not stay inside the directory they are joined to.
func CheckName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w (name=%q)", ErrUnsafeName, name)
	case strings.ContainsAny(name, `/\`+"\x00"), filepath.Base(name) != name:
		return fmt.Errorf("%w (name=%q)", ErrUnsafeName, name)
	}
	return nil
}

// PartialPath returns the path of the in-progress file for name in dir.
func PartialPath(dir, name string) string {
	return filepath.Join(dir, name+PartialSuffix)
}

// Size returns the size of the regular file at path and whether there is one.
func Size(path string) (int64, bool) {
	f, err := os.Stat(path)
	if err != nil || !f.Mode().IsRegular() {
		return 0, false
	}
	return f.Size(), true
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("%w: directory name", ErrEmpty)
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("%w: couldn't create directory(name=%s)", err, dir)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: couldn't stat directory(name=%s)", err, dir)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w (name=%s)", ErrNotDir, dir)
	}
	return nil
}

// WriteMetadata writes raw, pretty-printed, to dir/metadata.json.
func WriteMetadata(dir string, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidJSON, err.Error())
	}
	buf.WriteByte('\n')
	return Save(filepath.Join(dir, MetadataFilename), buf.Bytes())
}

// Save saves the file to the provided path/filename.
func Save(filename string, b []byte) error {
	if err := os.WriteFile(filename, b, 0o644); err != nil {
		return fmt.Errorf("%w: couldn't write file(name=%s)", err, filename)
	}
	return nil
}
