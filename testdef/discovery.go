package testdef

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultTestsFileName is the name of the file, inside a spec directory, that holds the tests
// for that spec.
const DefaultTestsFileName = "tests.yml"

// ErrNoTestsFile is returned by Spec.Load when the spec directory has no tests file.
var ErrNoTestsFile = errors.New("no tests file")

// Spec is one subdirectory of the specs directory. Its name is the spec ID used when
// submitting jobs.
type Spec struct {
	ID        string
	Dir       string
	TestsFile string // full path; set even if the file does not exist
	hasTests  bool
}

func (s Spec) HasTestsFile() bool {
	return s.hasTests
}

// Load reads and parses the spec's tests file.
func (s Spec) Load() (*TestFile, error) {
	if !s.hasTests {
		return nil, fmt.Errorf("%s: %w", s.ID, ErrNoTestsFile)
	}
	return LoadTestFile(s.TestsFile)
}

// DiscoverSpecs lists the immediate subdirectories of specsDir, sorted by name, including
// symbolic links to directories. Hidden directories are ignored. It is an error for specsDir
// not to exist or not to be a directory.
func DiscoverSpecs(specsDir, testsFileName string) ([]Spec, error) {
	if testsFileName == "" {
		testsFileName = DefaultTestsFileName
	}
	specsDir = filepath.Clean(specsDir)
	info, err := os.Stat(specsDir)
	if err != nil {
		return nil, fmt.Errorf("%s: does not exist (has the deployment been built?)", specsDir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: is not a directory", specsDir)
	}

	entries, err := os.ReadDir(specsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read specs directory: %w", err)
	}

	var specs []Spec
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(specsDir, e.Name())
		if !isDirOrLinkToDir(e, dir) {
			continue
		}
		s := Spec{
			ID:        e.Name(),
			Dir:       dir,
			TestsFile: filepath.Join(dir, testsFileName),
		}
		if fi, err := os.Stat(s.TestsFile); err == nil && !fi.IsDir() {
			s.hasTests = true
		}
		specs = append(specs, s)
	}
	return specs, nil
}

func isDirOrLinkToDir(e fs.DirEntry, path string) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
