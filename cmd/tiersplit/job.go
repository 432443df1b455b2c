package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/tiersplit/cache"
	"github.com/chazu/tiersplit/syntax"
	"github.com/chazu/tiersplit/syntax/wire"
	"github.com/chazu/tiersplit/transform"
)

const (
	// treeExt names CBOR tree files.
	treeExt = ".tree"
	// sourceExt is the extension of source generated from a tree input.
	sourceExt = ".py"
)

// job is one (input, tier) transformation. Each job parses its own copy of
// the input, so concurrent jobs never share annotations or trees.
type job struct {
	Input     string
	Tier      transform.Tier
	Options   transform.Options
	TreeInput bool
	EmitTree  bool
	OutDir    string
	RunID     string

	// Warnings holds the annotation warnings of the last run, whether the
	// output was rewritten or served from the cache.
	Warnings []string
}

// load reads and parses the input file.
func (j *job) load() (*syntax.Module, error) {
	data, err := os.ReadFile(j.Input)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", j.Input, err)
	}
	if j.TreeInput {
		mod, _, err := wire.Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", j.Input, err)
		}
		return mod, nil
	}
	mod, err := syntax.ParseModule(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", j.Input, err)
	}
	return mod, nil
}

func (j *job) rewrite(mod *syntax.Module) (*transform.Result, error) {
	res, err := transform.Rewrite(mod, j.Tier, j.Options)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", j.Input, err)
	}
	j.warn(res.Warnings)
	log.Debugf("[%s] %s %s: %d sites rewritten", j.RunID, j.Input, j.Tier, res.Stats.Changes())
	return res, nil
}

// warn logs annotation warnings and records them on the job.
func (j *job) warn(warnings []string) {
	for _, w := range warnings {
		log.Warningf("%s: %s", j.Input, w)
	}
	j.Warnings = warnings
}

// transform loads the input and rewrites it.
func (j *job) transform() (*transform.Result, error) {
	mod, err := j.load()
	if err != nil {
		return nil, err
	}
	return j.rewrite(mod)
}

// write stores the generated source, plus the tree when EmitTree is set,
// and returns the source path.
func (j *job) write(res *transform.Result) (string, error) {
	path := j.outputPath(j.sourceExt())
	if err := writeFileAtomic(path, []byte(res.Source())); err != nil {
		return "", err
	}
	log.Infof("[%s] wrote %s", j.RunID, path)

	if j.EmitTree {
		data, err := wire.Marshal(res.Module, j.RunID)
		if err != nil {
			return "", fmt.Errorf("encoding tree: %w", err)
		}
		treePath := j.outputPath(treeExt)
		if err := writeFileAtomic(treePath, data); err != nil {
			return "", err
		}
		log.Infof("[%s] wrote %s", j.RunID, treePath)
	}
	return path, nil
}

// build runs the job through the cache. A hit writes the stored output
// without rewriting; a miss rewrites and fills the cache. Tree emission
// needs the rewritten tree, so it always bypasses the lookup.
func (j *job) build(c *cache.Cache) (hit bool, err error) {
	mod, err := j.load()
	if err != nil {
		return false, err
	}

	key := cache.Key(mod, j.Options)
	if c != nil && !j.EmitTree {
		e, err := c.Get(key, j.Tier)
		switch {
		case err == nil:
			// Warnings depend only on the input, so a hit reports the
			// same ones a rewrite would.
			j.warn(transform.Extract(mod).Warnings())
			path := j.outputPath(j.sourceExt())
			if err := writeFileAtomic(path, []byte(e.Output)); err != nil {
				return false, err
			}
			log.Infof("[%s] %s unchanged since run %s, wrote %s", j.RunID, j.Input, e.RunID, path)
			return true, nil
		case !errors.Is(err, cache.ErrNotFound):
			log.Warningf("cache lookup for %s failed: %s", j.Input, err)
		}
	}

	res, err := j.rewrite(mod)
	if err != nil {
		return false, err
	}
	if _, err := j.write(res); err != nil {
		return false, err
	}
	if c != nil {
		if err := c.Put(key, j.Tier, res.Source(), j.RunID); err != nil {
			log.Warningf("cache store for %s failed: %s", j.Input, err)
		}
	}
	return false, nil
}

func (j *job) sourceExt() string {
	if j.TreeInput {
		return sourceExt
	}
	return filepath.Ext(j.Input)
}

// outputPath is <dir>/<stem>_<tier><ext>, where dir defaults to the
// input's own directory.
func (j *job) outputPath(ext string) string {
	dir := j.OutDir
	if dir == "" {
		dir = filepath.Dir(j.Input)
	}
	base := filepath.Base(j.Input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+"_"+string(j.Tier)+ext)
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it into place, so a failed run never leaves partial output.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
