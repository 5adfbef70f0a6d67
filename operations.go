package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

const outputDirName = "output"

type Jobs = []Job

// Job is one offline render: either a crop or an edit of a file.
type Job struct {
	Crop *CropJob
	Edit *EditJob
}

// unmarshal
func (j *Job) UnmarshalJSON(data []byte) error {
	var job struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &job); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}

	switch job.Type {
	case "crop":
		var crop CropJob
		if err := json.Unmarshal(data, &crop); err != nil {
			return fmt.Errorf("failed to unmarshal crop job: %w", err)
		}
		j.Crop = &crop
	case "edit":
		edit := EditJob{Adjustments: NeutralAdjustments()}
		if err := json.Unmarshal(data, &edit); err != nil {
			return fmt.Errorf("failed to unmarshal edit job: %w", err)
		}
		j.Edit = &edit
	default:
		return fmt.Errorf("unknown job %q", job.Type)
	}
	return nil
}

func (j Job) MarshalJSON() ([]byte, error) {
	switch {
	case j.Crop != nil:
		return json.Marshal(struct {
			Type string `json:"type"`
			*CropJob
		}{"crop", j.Crop})
	case j.Edit != nil:
		return json.Marshal(struct {
			Type string `json:"type"`
			*EditJob
		}{"edit", j.Edit})
	}
	return []byte("null"), nil
}

// CropJob crops a region selected over the image rendered at Display size.
type CropJob struct {
	Filename string `json:"filename"`
	Region   Rect   `json:"region"`
	Display  Size   `json:"display"`
}

type EditJob struct {
	Filename    string      `json:"filename"`
	Adjustments Adjustments `json:"adjustments"`
}

// ParseJobs reads JSON lines, skipping blank lines.
func ParseJobs(data []byte) (Jobs, error) {
	var jobs Jobs
	for i, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var j Job
		if err := json.Unmarshal(line, &j); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

type JobExecutor struct {
	BaseDir    string
	OutputDir  string
	Rasterizer Rasterizer
	Compositor *Compositor
}

// Exec runs the jobs on a bounded pool. Every job is independent and renders
// on a single goroutine.
func (r JobExecutor) Exec(ctx context.Context, jobs []Job) error {
	if len(jobs) == 0 {
		log.Ctx(ctx).Warn().Msg("no jobs to execute")
		return nil
	}

	pooler := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(runtime.NumCPU())

	if err := os.MkdirAll(r.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", r.OutputDir, err)
	}
	for _, job := range jobs {
		pooler.Go(func(ctx context.Context) error {
			if err := r.executeJob(ctx, job); err != nil {
				log.Ctx(ctx).Error().Err(err).
					Interface("job", job).
					Msg("failed to execute job")
				return err
			}
			return nil
		})
	}

	if err := pooler.Wait(); err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Msg("finished with errors")
		return err
	}

	return nil
}

func (r JobExecutor) executeJob(ctx context.Context, job Job) error {
	if job.Crop != nil {
		return r.executeCrop(ctx, *job.Crop)
	} else if job.Edit != nil {
		return r.executeEdit(ctx, *job.Edit)
	}
	return nil
}

func (r JobExecutor) executeCrop(ctx context.Context, job CropJob) error {
	log.Ctx(ctx).Info().Str("filename", job.Filename).Msg("cropping")
	f, err := openLibraryFile(r.BaseDir, job.Filename)
	if err != nil {
		return err
	}
	defer f.Close()

	src, err := DecodeSource(ctx, f, job.Filename)
	if err != nil {
		return err
	}
	if job.Display.Empty() {
		return fmt.Errorf("crop %s: %w: display size missing", job.Filename, ErrInputNotReady)
	}
	native := ToNativeRect(job.Region, job.Display, src.Native())
	asset, err := r.Rasterizer.Export(ctx, src, native)
	if err != nil {
		return err
	}
	return r.write(job.Filename, native.ID(), asset)
}

func (r JobExecutor) executeEdit(ctx context.Context, job EditJob) error {
	log.Ctx(ctx).Info().Str("filename", job.Filename).Stringer("adjustments", job.Adjustments).Msg("editing")
	data, err := os.ReadFile(filepath.Join(r.BaseDir, filepath.Clean("/"+job.Filename)))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", job.Filename, err)
	}
	src, err := NewRasterAsset(data)
	if err != nil {
		return fmt.Errorf("%s: %w", job.Filename, err)
	}
	asset, err := r.Compositor.Composite(ctx, src, job.Adjustments)
	if err != nil {
		return fmt.Errorf("failed to edit %s: %w", job.Filename, err)
	}
	return r.write(job.Filename, job.Adjustments.ID(), asset)
}

func (r JobExecutor) write(filename, id string, asset RasterAsset) error {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	newName := fmt.Sprintf("%s-%s%s", base, id, asset.Encoding().Ext())
	outPath := filepath.Join(r.OutputDir, newName)
	wf, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", newName, err)
	}
	defer wf.Close()
	if _, err := asset.WriteTo(wf); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", newName, err)
	}
	return nil
}
