package main

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/tiersplit/cache"
	"github.com/chazu/tiersplit/manifest"
	"github.com/chazu/tiersplit/transform"
)

// buildReport summarizes a build run.
type buildReport struct {
	Cached   int64 // first for 64-bit atomic alignment
	Pruned   int64
	Jobs     int
	Warnings int
}

// runBuild generates every tier of every [[source]] in the manifest found
// from dir.
func runBuild(dir, runID string) error {
	report, err := build(context.Background(), dir, runID)
	if err != nil {
		return err
	}
	log.Noticef("[%s] build finished: %d outputs, %d from cache, %d expired entries pruned, %d warnings",
		runID, report.Jobs, report.Cached, report.Pruned, report.Warnings)
	return nil
}

func build(ctx context.Context, dir, runID string) (*buildReport, error) {
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("no %s found in %s or its parents", manifest.FileName, dir)
	}
	if len(m.Sources) == 0 {
		return nil, fmt.Errorf("%s declares no [[source]] entries", manifest.FileName)
	}

	report := &buildReport{}
	var c *cache.Cache
	if path := m.CachePath(); path != "" {
		c, err = cache.Open(path)
		if err != nil {
			return nil, err
		}
		defer c.Close()
		log.Debugf("[%s] using cache %s", runID, c.Path())

		if maxAge := m.CacheMaxAge(); maxAge > 0 {
			report.Pruned, err = c.Prune(time.Now().Add(-maxAge))
			if err != nil {
				return nil, err
			}
			log.Infof("[%s] pruned %d entries older than %s from %s", runID, report.Pruned, maxAge, c.Path())
		}
	}

	var jobs []*job
	for _, s := range m.Sources {
		input := m.SourcePath(s)
		for _, t := range s.Tiers {
			// Tiers were validated when the manifest was loaded.
			tier, _ := transform.ParseTier(t)
			jobs = append(jobs, &job{
				Input:    input,
				Tier:     tier,
				Options:  m.Options(),
				EmitTree: m.Output.EmitTree,
				OutDir:   m.OutputDir(input),
				RunID:    runID,
			})
		}
	}

	report.Jobs = len(jobs)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			hit, err := j.build(c)
			if err != nil {
				return err
			}
			if hit {
				atomic.AddInt64(&report.Cached, 1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, j := range jobs {
		report.Warnings += len(j.Warnings)
	}
	return report, nil
}
