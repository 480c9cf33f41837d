// Package report renders a collected inventory into the as-built artifacts:
// a JSON document, per-section CSV files, a multi-sheet workbook and a PDF
// summary. The assembler consumes the normalized data model only; it never
// talks to the cluster.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sanops/asbuilt/internal/models"
	"github.com/sanops/asbuilt/pkg/scheduler"
)

type artifactWriter struct {
	name  string
	write func(ctx context.Context, dir string, inv *models.Inventory) (string, error)
}

// Assembler writes every artifact kind for one inventory. Writers run
// through the shared worker pool; one slow or failing writer does not hold
// up the others, but any failure fails the assembly.
type Assembler struct {
	outDir string
	sched  *scheduler.Scheduler
	log    *zap.SugaredLogger
}

func NewAssembler(outDir string, sched *scheduler.Scheduler) *Assembler {
	return &Assembler{
		outDir: outDir,
		sched:  sched,
		log:    zap.S().Named("report"),
	}
}

// Write renders every artifact and returns their paths. The output
// directory is created if needed.
func (a *Assembler) Write(ctx context.Context, inv *models.Inventory) ([]string, error) {
	if err := os.MkdirAll(a.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	writers := []artifactWriter{
		{"json", writeJSON},
		{"csv", writeCSVs},
		{"workbook", writeWorkbook},
		{"pdf", writePDF},
	}

	futures := make([]*scheduler.Future[any], 0, len(writers))
	for _, w := range writers {
		w := w
		futures = append(futures, a.sched.AddWork(func(ctx context.Context) (any, error) {
			path, err := w.write(ctx, a.outDir, inv)
			if err != nil {
				return nil, fmt.Errorf("%s artifact: %w", w.name, err)
			}
			return path, nil
		}))
	}

	var paths []string
	var firstErr error
	for i, f := range futures {
		result := f.Wait()
		if result.Err != nil {
			a.log.Errorw("artifact write failed", "artifact", writers[i].name, "error", result.Err)
			if firstErr == nil {
				firstErr = result.Err
			}
			continue
		}
		paths = append(paths, result.Data.(string))
	}
	if firstErr != nil {
		return paths, firstErr
	}

	a.log.Infow("artifacts written", "dir", a.outDir, "count", len(paths))
	return paths, nil
}

func artifactPath(dir, name string) string {
	return filepath.Join(dir, name)
}

// rackUnitCell renders a rack unit for human consumption.
func rackUnitCell(u int) string {
	if u == models.RackUnitManualFill {
		return models.ValueManualEntry
	}
	return fmt.Sprintf("U%d", u)
}
