// Package scan enumerates candidate media files below an input directory.
package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"mediasort/internal/metadata"
	"mediasort/internal/services"
)

// Candidate is one file selected for organizing.
type Candidate struct {
	Path string
	Rel  string
	Kind metadata.Kind
	Size int64
}

// Options configures a scan.
type Options struct {
	Root       string
	OutputRoot string
	Classifier metadata.Classifier
}

// Files walks Root and returns candidates with videos first, each kind
// sorted by relative path.
//
// Hidden directories and files are never visited. When OutputRoot lies inside
// Root it is pruned; when both are the same directory, top-level year
// directories are pruned instead so previously organized files are not
// picked up again.
func Files(opts Options) ([]Candidate, error) {
	root := filepath.Clean(opts.Root)
	output := ""
	if strings.TrimSpace(opts.OutputRoot) != "" {
		output = filepath.Clean(opts.OutputRoot)
	}

	files := make([]Candidate, 0, 128)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == root {
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if skipDir(path, root, output, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		kind, ok := opts.Classifier.Classify(path)
		if !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		files = append(files, Candidate{
			Path: path,
			Rel:  rel,
			Kind: kind,
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "scan", "walk input", fmt.Sprintf("Failed to scan %s", root), err)
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Kind != files[j].Kind {
			return files[i].Kind == metadata.KindVideo
		}
		return files[i].Rel < files[j].Rel
	})
	return files, nil
}

func skipDir(path, root, output, name string) bool {
	if output == "" {
		return false
	}
	if output == root {
		return filepath.Dir(path) == root && isYearDir(name)
	}
	return isUnder(path, output)
}

func isYearDir(name string) bool {
	if len(name) != 4 {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	return strings.HasPrefix(path, base+string(filepath.Separator))
}
