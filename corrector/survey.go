package corrector

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"bandfix/config"
	"bandfix/logger"

	"github.com/rwcarlsen/goexif/exif"
)

// Survey walks the roots and aggregates the firmware Software tag
// across band image files, sampling one file per directory. Used to
// decide which correction table a dataset needs before touching it.
func Survey(ctx context.Context, cfg *config.Config) (map[string]int, error) {
	counts := make(map[string]int)
	seenDirs := make(map[string]struct{})

	for _, root := range cfg.Roots {
		err := walk(ctx, root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warnf("Failed to access %s: %v", path, err)
				return nil
			}
			if d == nil || d.IsDir() || !isCandidate(path, cfg) {
				return nil
			}
			dir := filepath.Dir(path)
			if _, sampled := seenDirs[dir]; sampled {
				return nil
			}
			seenDirs[dir] = struct{}{}
			counts[softwareVersion(path)]++
			return nil
		})
		if err != nil {
			return counts, err
		}
	}
	return counts, nil
}

// softwareVersion reads the EXIF Software tag locally. TIFF carries
// EXIF in its primary IFD, so no external tool is needed here.
func softwareVersion(path string) string {
	f, err := os.Open(path)
	if err != nil {
		logger.Debugf("Survey open failed for %s: %v", path, err)
		return "unknown"
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		logger.Debugf("Survey decode failed for %s: %v", path, err)
		return "unknown"
	}
	tag, err := x.Get(exif.Software)
	if err != nil {
		return "unknown"
	}
	value, err := tag.StringVal()
	if err != nil || value == "" {
		return "unknown"
	}
	return value
}

// WriteSurvey prints the firmware distribution, most common first.
func WriteSurvey(out io.Writer, counts map[string]int) {
	fmt.Fprintln(out, "=== Firmware Survey ===")
	versions := make([]string, 0, len(counts))
	total := 0
	for v, n := range counts {
		versions = append(versions, v)
		total += n
	}
	sort.Slice(versions, func(i, j int) bool {
		if counts[versions[i]] != counts[versions[j]] {
			return counts[versions[i]] > counts[versions[j]]
		}
		return versions[i] < versions[j]
	})
	fmt.Fprintf(out, "Directories sampled: %d\n", total)
	for _, v := range versions {
		fmt.Fprintf(out, "  %-40s %d\n", v, counts[v])
	}
}
