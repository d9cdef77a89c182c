package intake

import (
	"archive/zip"
	"bytes"
	"io"
	"path"
	"strings"
)

// ignoredArchiveEntries are junk paths commonly present in user-built ZIPs.
var ignoredArchiveEntries = []string{
	".DS_Store",
	"__MACOSX",
	".git",
	"Thumbs.db",
	"desktop.ini",
}

func isIgnoredEntry(name string) bool {
	for _, part := range strings.Split(name, "/") {
		for _, ignored := range ignoredArchiveEntries {
			if part == ignored {
				return true
			}
		}
		if strings.HasPrefix(part, "._") {
			return true
		}
	}
	return false
}

// expandArchive flattens a ZIP into independent files. Directory structure is
// discarded; each kept entry uses its base name. Junk entries are reported,
// not rejected.
func expandArchive(f File) (entries []File, ignored []string, err error) {
	reader, err := zip.NewReader(bytes.NewReader(f.Data), int64(len(f.Data)))
	if err != nil {
		return nil, nil, validationf("%s is not a valid ZIP archive", f.Name)
	}

	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if isIgnoredEntry(entry.Name) {
			ignored = append(ignored, entry.Name)
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return nil, nil, validationf("failed to read %s from %s", entry.Name, f.Name)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, nil, validationf("failed to read %s from %s", entry.Name, f.Name)
		}

		entries = append(entries, File{Name: path.Base(entry.Name), Data: data})
	}
	return entries, ignored, nil
}
