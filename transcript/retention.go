package transcript

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// RetentionPolicy controls how long finished runs stay on disk.
type RetentionPolicy struct {
	RetentionDays        int  // Days to keep runs before deletion
	ArchiveAfterDays     int  // Days before a run is packed into an archive
	ArchiveRetentionDays int  // Days to keep archives
	KeepFailed           bool // Never touch failed runs
	KeepMinRuns          int  // Minimum runs to keep regardless of age
}

// DefaultRetentionPolicy returns the policy applied when none is configured.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		RetentionDays:        30,
		ArchiveAfterDays:     7,
		ArchiveRetentionDays: 90,
		KeepFailed:           true,
		KeepMinRuns:          100,
	}
}

// Retention applies a retention policy to a transcript store's directory.
// Old runs are packed into tar.gz archives grouped by month, ancient runs
// and expired archives are deleted.
type Retention struct {
	baseDir string
	policy  RetentionPolicy
}

// NewRetention creates a retention manager over the store's base directory.
func NewRetention(store *FileStore, policy RetentionPolicy) *Retention {
	return &Retention{baseDir: store.BaseDir(), policy: policy}
}

// SweepResult summarizes one retention sweep.
type SweepResult struct {
	Archived   []string `json:"archived"`
	Deleted    []string `json:"deleted"`
	Kept       []string `json:"kept"`
	Errors     []string `json:"errors,omitempty"`
	SpaceSaved int64    `json:"spaceSaved"`
}

// Sweep walks every stored run and archives or deletes those past their
// thresholds. With dryRun the result reports what would happen without
// touching disk.
func (r *Retention) Sweep(dryRun bool) (*SweepResult, error) {
	result := &SweepResult{
		Archived: []string{},
		Deleted:  []string{},
		Kept:     []string{},
	}

	runsDir := filepath.Join(r.baseDir, "runs")
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, err
	}

	now := time.Now()
	archiveBefore := now.Add(-time.Duration(r.policy.ArchiveAfterDays) * 24 * time.Hour)
	deleteBefore := now.Add(-time.Duration(r.policy.RetentionDays) * 24 * time.Hour)

	type run struct {
		id   string
		meta *Meta
		size int64
	}

	var runs []run
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		meta, err := readMeta(filepath.Join(runsDir, id, "metadata.json"))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("load %s: %v", id, err))
			continue
		}
		runs = append(runs, run{id: id, meta: meta, size: dirSize(filepath.Join(runsDir, id))})
	}

	// Oldest first, so the minimum-run floor keeps the newest.
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].meta.EndedAt.Before(runs[j].meta.EndedAt)
	})

	removed := 0
	for _, run := range runs {
		switch {
		case run.meta.Status == RunStatusRunning,
			r.policy.KeepFailed && run.meta.Status == RunStatusFailed,
			len(runs)-removed-1 < r.policy.KeepMinRuns:
			result.Kept = append(result.Kept, run.id)
			continue
		}

		runDir := filepath.Join(runsDir, run.id)
		switch {
		case run.meta.EndedAt.Before(deleteBefore):
			if !dryRun {
				if err := os.RemoveAll(runDir); err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("delete %s: %v", run.id, err))
					continue
				}
			}
			result.Deleted = append(result.Deleted, run.id)
			result.SpaceSaved += run.size
			removed++

		case run.meta.EndedAt.Before(archiveBefore):
			if !dryRun {
				if err := r.archive(run.id, run.meta); err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("archive %s: %v", run.id, err))
					continue
				}
			}
			result.Archived = append(result.Archived, run.id)
			result.SpaceSaved += run.size / 2
			removed++

		default:
			result.Kept = append(result.Kept, run.id)
		}
	}

	return result, nil
}

// SweepArchives removes archives older than the archive retention period.
func (r *Retention) SweepArchives(dryRun bool) (*SweepResult, error) {
	result := &SweepResult{Deleted: []string{}, Kept: []string{}}

	archiveDir := filepath.Join(r.baseDir, "archive")
	threshold := time.Now().Add(-time.Duration(r.policy.ArchiveRetentionDays) * 24 * time.Hour)

	err := filepath.Walk(archiveDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(info.Name(), ".tar.gz") {
			return nil
		}
		runID := strings.TrimSuffix(info.Name(), ".tar.gz")
		if info.ModTime().Before(threshold) {
			if !dryRun {
				if err := os.Remove(path); err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("delete archive %s: %v", runID, err))
					return nil
				}
			}
			result.Deleted = append(result.Deleted, runID)
			result.SpaceSaved += info.Size()
		} else {
			result.Kept = append(result.Kept, runID)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return result, nil
}

// archive packs a run directory into archive/<month>/<runID>.tar.gz and
// removes the original. Archives group by the month the run ended.
func (r *Retention) archive(runID string, meta *Meta) error {
	runDir := filepath.Join(r.baseDir, "runs", runID)
	archiveDir := filepath.Join(r.baseDir, "archive", archiveMonth(meta))
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return err
	}
	archivePath := filepath.Join(archiveDir, runID+".tar.gz")

	f, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	walkErr := filepath.Walk(runDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(runDir, path)
		header.Name = filepath.Join(runID, rel)
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tw, src)
		return err
	})

	tw.Close()
	gz.Close()
	f.Close()
	if walkErr != nil {
		os.Remove(archivePath)
		return walkErr
	}
	return os.RemoveAll(runDir)
}

// Restore unpacks an archived run back into the runs directory.
func (r *Retention) Restore(runID string) error {
	archivePath := r.findArchive(runID)
	if archivePath == "" {
		return fmt.Errorf("archive not found: %s", runID)
	}

	runDir := filepath.Join(r.baseDir, "runs", runID)
	if _, err := os.Stat(runDir); err == nil {
		return fmt.Errorf("run already exists: %s", runID)
	}
	return extractArchive(archivePath, filepath.Dir(runDir))
}

// ListArchives returns the run IDs of every archived run.
func (r *Retention) ListArchives() ([]string, error) {
	var archives []string
	err := filepath.Walk(filepath.Join(r.baseDir, "archive"), func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if strings.HasSuffix(info.Name(), ".tar.gz") {
			archives = append(archives, strings.TrimSuffix(info.Name(), ".tar.gz"))
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return archives, nil
}

// DiskUsage reports how much space runs and archives occupy.
func (r *Retention) DiskUsage() (*DiskUsage, error) {
	usage := &DiskUsage{}

	runsDir := filepath.Join(r.baseDir, "runs")
	if entries, err := os.ReadDir(runsDir); err == nil {
		usage.RunCount = len(entries)
		for _, entry := range entries {
			if entry.IsDir() {
				usage.ActiveSize += dirSize(filepath.Join(runsDir, entry.Name()))
			}
		}
	}

	filepath.Walk(filepath.Join(r.baseDir, "archive"), func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(info.Name(), ".tar.gz") {
			return nil
		}
		usage.ArchiveSize += info.Size()
		usage.ArchiveCount++
		return nil
	})

	usage.TotalSize = usage.ActiveSize + usage.ArchiveSize
	return usage, nil
}

// DiskUsage describes the store's footprint on disk.
type DiskUsage struct {
	RunCount     int   `json:"runCount"`
	ArchiveCount int   `json:"archiveCount"`
	ActiveSize   int64 `json:"activeSize"`
	ArchiveSize  int64 `json:"archiveSize"`
	TotalSize    int64 `json:"totalSize"`
}

func (r *Retention) findArchive(runID string) string {
	var found string
	filepath.Walk(filepath.Join(r.baseDir, "archive"), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.Name() == runID+".tar.gz" {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

func extractArchive(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		target := filepath.Join(destDir, header.Name)
		// Reject entries that escape the destination.
		if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(destDir)) {
			return fmt.Errorf("invalid path in archive: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			out, err := os.Create(target)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
			if err := os.Chmod(target, os.FileMode(header.Mode)); err != nil {
				return err
			}
		}
	}
	return nil
}

func readMeta(path string) (*Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func archiveMonth(meta *Meta) string {
	if meta.EndedAt.IsZero() {
		return time.Now().Format("2006-01")
	}
	return meta.EndedAt.Format("2006-01")
}

func dirSize(path string) int64 {
	var size int64
	filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}
