package stats

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	BYTE = 1 << (10 * iota)
	KILOBYTE
	MEGABYTE
	GIGABYTE
)

// EnableMemoryStatistics enables go routine that periodically prints memory
// usage of the go process. When ctx is done, the metrics gathered by
// gatherer are dumped to a file in dumpDir, if not empty.
func EnableMemoryStatistics(
	ctx context.Context, interval time.Duration,
	gatherer prometheus.Gatherer, dumpDir string,
) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				PrintMemoryStatistics()
				PrintNumOfRoutines()
			case <-ctx.Done():
				if len(dumpDir) <= 0 || gatherer == nil {
					return
				}
				if err := DumpMetrics(gatherer, dumpDir); err != nil {
					log.WithError(err).Warn("failed to dump metrics")
				}
				return
			}
		}
	}()
}

func toMegabytes(bytes uint64) float64 {
	return float64(bytes) / MEGABYTE
}

// PrintMemoryStatistics prints memory statistics using go runtime library.
func PrintMemoryStatistics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.Infof(
		"Total allocated: %.3fMB, Heap allocated: %.3fMB, "+
			"Allocated objects count: %v, Freed objects count: %v",
		toMegabytes(memStats.TotalAlloc),
		toMegabytes(memStats.HeapAlloc),
		memStats.Mallocs,
		memStats.Frees,
	)
}

// DumpMetrics appends the metrics gathered by gatherer to the stats file of
// the given directory.
func DumpMetrics(gatherer prometheus.Gatherer, dir string) error {
	file, err := os.OpenFile(
		filepath.Join(dir, "stats"),
		os.O_APPEND|os.O_CREATE|os.O_RDWR,
		0644,
	)
	if err != nil {
		return err
	}
	defer file.Close()

	metricFamilies, err := gatherer.Gather()
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(file)
	for _, v := range metricFamilies {
		if _, err := writer.WriteString(v.String() + "\n"); err != nil {
			return err
		}
	}
	return writer.Flush()
}

// PrintNumOfRoutines prints number of go routines currently running
func PrintNumOfRoutines() {
	log.Infof("Num of go routines: %v", runtime.NumGoroutine())
}
