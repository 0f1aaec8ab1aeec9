// File: pkg/combine/worker.go
package combine

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Coordinator runs a Processor over the enumerated files and writes the
// records in enumeration order, whatever the number of workers.
type Coordinator struct {
	Processor Processor
	Jobs      int  // Values <= 1 process files sequentially.
	Progress  bool // Log each file before it is processed.

	logger *zap.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(p Processor, jobs int, progress bool, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{Processor: p, Jobs: jobs, Progress: progress, logger: logger}
}

// Summary counts what a run produced.
type Summary struct {
	Shown   int
	Skipped int
}

// Run processes files and writes every non-empty record to w. Sequential
// runs write each record as soon as it is produced; concurrent runs write
// after every worker has finished.
func (c *Coordinator) Run(files []string, w io.Writer) (Summary, error) {
	var sum Summary
	emit := func(r Record) error {
		if r.Skipped {
			sum.Skipped++
		} else {
			sum.Shown++
		}
		if len(r.Data) == 0 {
			return nil
		}
		if _, err := w.Write(r.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", r.Path, err)
		}
		return nil
	}

	if c.Jobs <= 1 || len(files) <= 1 {
		for i, file := range files {
			if c.Progress {
				c.logger.Info(fmt.Sprintf("[%d/%d] %s", i+1, len(files), file))
			}
			if err := emit(c.Processor.Process(file)); err != nil {
				return sum, err
			}
		}
	} else {
		for _, r := range c.runConcurrent(files) {
			if err := emit(r); err != nil {
				return sum, err
			}
		}
	}

	c.logger.Debug("All files processed", zap.Int("shown", sum.Shown), zap.Int("skipped", sum.Skipped))
	return sum, nil
}

// runConcurrent fills one slot per file so output order does not depend on
// scheduling.
func (c *Coordinator) runConcurrent(files []string) []Record {
	workers := c.Jobs
	if workers > len(files) {
		workers = len(files)
	}

	slots := make([]Record, len(files))
	jobs := make(chan int, len(files))
	var wg sync.WaitGroup

	c.logger.Debug("Initializing worker pool", zap.Int("workers", workers), zap.Int("files", len(files)))
	for id := 0; id < workers; id++ {
		wg.Add(1)
		go c.worker(files, jobs, slots, &wg, c.logger.With(zap.Int("workerID", id)))
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if c.Progress {
		c.logger.Info(fmt.Sprintf("[%d/%d] processed with %d workers", len(files), len(files), workers))
	}
	return slots
}

func (c *Coordinator) worker(files []string, jobs <-chan int, slots []Record, wg *sync.WaitGroup, logger *zap.Logger) {
	defer wg.Done()
	for i := range jobs {
		logger.Debug("Worker received file to process", zap.String("file", files[i]))
		slots[i] = c.Processor.Process(files[i])
	}
	logger.Debug("Worker finished processing")
}
