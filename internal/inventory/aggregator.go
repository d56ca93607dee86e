package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ben-ranford/addonimports/internal/symbols"
	"github.com/ben-ranford/addonimports/internal/workspace"
)

// SummaryRecord is an import signature together with every package that
// imports it, in package-discovery order.
type SummaryRecord struct {
	symbols.ImportRecord
	Packages []string `json:"packages"`
}

type Aggregator struct {
	Collector *Collector
	// Jobs bounds how many packages are collected at once; values below 2
	// keep the run sequential.
	Jobs   int
	Logger *log.Logger
}

type packageImports struct {
	name    string
	imports []symbols.ImportRecord
}

// Summarize inventories every package directly under dependencyDir and merges
// their imports into one table keyed by signature. The result is in
// first-seen order and independent of Jobs.
func (a *Aggregator) Summarize(ctx context.Context, dependencyDir string) ([]SummaryRecord, error) {
	names, err := workspace.ListPackages(dependencyDir)
	if err != nil {
		return nil, err
	}

	var collected []packageImports
	if a.Jobs > 1 && len(names) > 1 {
		collected, err = a.collectConcurrent(ctx, dependencyDir, names)
	} else {
		collected, err = a.collectSequential(ctx, dependencyDir, names)
	}
	if err != nil {
		return nil, err
	}
	return merge(collected), nil
}

func (a *Aggregator) collectSequential(ctx context.Context, dependencyDir string, names []string) ([]packageImports, error) {
	collected := make([]packageImports, 0, len(names))
	for _, name := range names {
		imports, err := a.collectPackage(ctx, dependencyDir, name)
		if err != nil {
			return nil, err
		}
		collected = append(collected, packageImports{name: name, imports: imports})
	}
	return collected, nil
}

func (a *Aggregator) collectConcurrent(ctx context.Context, dependencyDir string, names []string) ([]packageImports, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	collected := make([]packageImports, len(names))
	indexes := make(chan int)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	workers := min(a.Jobs, len(names))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				imports, err := a.collectPackage(ctx, dependencyDir, names[i])
				if err != nil {
					fail(err)
					continue
				}
				// Each slot is owned by exactly one worker.
				collected[i] = packageImports{name: names[i], imports: imports}
			}
		}()
	}

feed:
	for i := range names {
		select {
		case indexes <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return collected, nil
}

func (a *Aggregator) collectPackage(ctx context.Context, dependencyDir, name string) ([]symbols.ImportRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	packageDir, err := workspace.PackageDir(dependencyDir, name)
	if err != nil {
		return nil, err
	}
	if a.Logger != nil {
		a.Logger.Debug("collecting package", "package", name)
	}
	imports, err := a.Collector.CollectImports(ctx, packageDir)
	if err != nil {
		return nil, fmt.Errorf("collect package %s: %w", name, err)
	}
	return imports, nil
}

func merge(collected []packageImports) []SummaryRecord {
	var table []SummaryRecord
	index := make(map[string]int)
	for _, pkg := range collected {
		for _, record := range pkg.imports {
			if i, ok := index[record.Signature]; ok {
				table[i].Packages = appendUnique(table[i].Packages, pkg.name)
				continue
			}
			index[record.Signature] = len(table)
			table = append(table, SummaryRecord{ImportRecord: record, Packages: []string{pkg.name}})
		}
	}
	return table
}

func appendUnique(packages []string, name string) []string {
	for _, existing := range packages {
		if existing == name {
			return packages
		}
	}
	return append(packages, name)
}
