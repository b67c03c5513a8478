package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	ralpherrors "github.com/cperrin88/ralph/pkg/errors"
	"github.com/cperrin88/ralph/pkg/model"
)

// metadataCacheEntry remembers a decoded package keyed by its file's
// modification time, so an unchanged file is not re-parsed on every
// reindex.
type metadataCacheEntry struct {
	modTime time.Time
	pkg     model.Package
}

func newMetadataCache() *lru.Cache[string, metadataCacheEntry] {
	c, err := lru.New[string, metadataCacheEntry](512)
	if err != nil {
		panic(err)
	}
	return c
}

// reindex walks <mirrorDir>/packages/<name>/<version>.json and rebuilds
// the in-memory name -> versions(ascending) index. A malformed file fails
// the whole reindex with a SourceFormat error naming the offending path.
func (s *Source) reindex() error {
	root := filepath.Join(s.mirrorDir, "packages")
	byName := make(map[string][]model.Package)

	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		s.setPackages(byName)
		return nil
	}
	if err != nil {
		return ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "statting "+root)
	}
	if !info.IsDir() {
		return ralpherrors.New(ralpherrors.KindSourceFormat, "%s is not a directory", root)
	}

	walkErr := filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}

		pkg, decodeErr := s.decodeCached(path, fi)
		if decodeErr != nil {
			return decodeErr
		}
		byName[pkg.Name] = append(byName[pkg.Name], pkg)
		return nil
	})
	if walkErr != nil {
		return walkErr
	}

	for name := range byName {
		versions := byName[name]
		sort.Slice(versions, func(i, j int) bool {
			return versions[i].Version.LessThan(versions[j].Version)
		})
		byName[name] = versions
	}

	s.setPackages(byName)
	return nil
}

func (s *Source) decodeCached(path string, fi os.FileInfo) (model.Package, error) {
	if entry, ok := s.metadataCache.Get(path); ok && entry.modTime.Equal(fi.ModTime()) {
		return entry.pkg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.Package{}, ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "reading "+path)
	}

	pkg, err := model.DecodePackageMetadata(path, data, model.SourceIdentity(s.name))
	if err != nil {
		return model.Package{}, err
	}

	s.metadataCache.Add(path, metadataCacheEntry{modTime: fi.ModTime(), pkg: pkg})
	return pkg, nil
}
