package compose

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storyreel/internal/config"
	"storyreel/internal/fileutil"
	"storyreel/internal/logging"
	"storyreel/internal/media/ffprobe"
	"storyreel/internal/proc"
	"storyreel/internal/services"
	"storyreel/internal/storage"
)

const defaultSlideSeconds = 10.0

// Slide is one ordered slideshow entry: a still image plus optional
// narration audio that sets the slide's on-screen duration.
type Slide struct {
	ImagePath string
	AudioPath string
}

// Inputs gathers everything the pipeline needs to assemble one video.
type Inputs struct {
	OpeningPath  string
	Slides       []Slide
	AudioPaths   []string
	SubtitlePath string
	OutputFormat string
	Title        string
}

// Pipeline assembles the final video through a fixed sequence of ffmpeg
// steps, validating every intermediate before the next step runs.
type Pipeline struct {
	tools   config.Tools
	outDir  string
	logger  *slog.Logger
	store   *storage.Client
	cleanup *Scheduler
}

// NewPipeline constructs a composition pipeline. The storage client and
// cleanup scheduler may be nil; artifacts then stay local and job
// directories are removed synchronously.
func NewPipeline(tools config.Tools, outputDir string, logger *slog.Logger, store *storage.Client, cleanup *Scheduler) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		tools:   tools,
		outDir:  outputDir,
		logger:  logger,
		store:   store,
		cleanup: cleanup,
	}
}

type renderSpec struct {
	width  int
	height int
	fps    int
}

func specForFormat(outputFormat string) renderSpec {
	if strings.EqualFold(strings.TrimSpace(outputFormat), "portrait") {
		return renderSpec{width: 1080, height: 1920, fps: 30}
	}
	return renderSpec{width: 1920, height: 1080, fps: 30}
}

// Result reports where the finished video landed.
type Result struct {
	LocalPath string
	RemoteURL string
}

// Compose runs the full step sequence for a job. On failure the job
// directory is preserved and its path is included in the error; on success
// cleanup is scheduled after a grace delay.
func (p *Pipeline) Compose(ctx context.Context, job *Job, in Inputs) (*Result, error) {
	if len(in.Slides) == 0 {
		return nil, services.Wrap(services.ErrValidation, "compose", "compose", "no slides to assemble", nil)
	}
	spec := specForFormat(in.OutputFormat)
	log := p.logger.With(logging.FieldVideoID, job.VideoID)

	slideshow, err := p.buildSlideshow(ctx, job, in.Slides, spec)
	if err != nil {
		return nil, p.fail(job, err)
	}

	video := slideshow
	narrationOffset := 0.0
	if in.OpeningPath != "" {
		normalized, err := p.normalizeOpening(ctx, job, in.OpeningPath, spec)
		if err != nil {
			return nil, p.fail(job, err)
		}
		video, err = p.concatClips(ctx, job, []string{normalized, slideshow})
		if err != nil {
			return nil, p.fail(job, err)
		}
		// Narration belongs to the slides, so the whole track shifts past
		// the opening. An unmeasurable opening would desynchronize every
		// caption and slide, so it fails the run instead.
		probed, err := ffprobe.Inspect(ctx, p.ffprobeBinary(), normalized, p.timeout(p.tools.ProbeTimeout), p.allowedBase(job))
		if err != nil {
			return nil, p.fail(job, fmt.Errorf("measure opening duration: %w", err))
		}
		narrationOffset = probed.DurationSeconds()
	}

	if len(in.AudioPaths) > 0 {
		narration, err := p.concatAudio(ctx, job, in.AudioPaths)
		if err != nil {
			return nil, p.fail(job, err)
		}
		video, err = p.muxAudio(ctx, job, video, narration, narrationOffset)
		if err != nil {
			return nil, p.fail(job, err)
		}
	}

	if in.SubtitlePath != "" {
		video, err = p.burnSubtitles(ctx, job, video, in.SubtitlePath)
		if err != nil {
			return nil, p.fail(job, err)
		}
	}

	result, err := p.handoff(ctx, job, video, in.Title)
	if err != nil {
		return nil, p.fail(job, err)
	}

	if p.cleanup != nil {
		p.cleanup.Schedule(job)
	} else if err := job.Remove(); err != nil {
		log.Warn("remove compose workdir", logging.Error(err))
	}
	log.Info("composition finished", "final_file", result.LocalPath)
	return result, nil
}

// buildSlideshow renders each slide into a fixed-duration segment and
// stream-copy concatenates the segments.
func (p *Pipeline) buildSlideshow(ctx context.Context, job *Job, slides []Slide, spec renderSpec) (string, error) {
	segments := make([]string, 0, len(slides))
	for i, slide := range slides {
		duration := defaultSlideSeconds
		if slide.AudioPath != "" {
			if measured := p.audioDuration(ctx, job, slide.AudioPath); measured > 0 {
				duration = measured
			}
		}

		segment := job.Path(fmt.Sprintf("segment-%03d.mp4", i))
		args := []string{
			"-y", "-loop", "1",
			"-i", slide.ImagePath,
			"-t", fmt.Sprintf("%.3f", duration),
			"-vf", scaleFilter(spec),
			"-r", fmt.Sprintf("%d", spec.fps),
			"-pix_fmt", "yuv420p",
			"-c:v", "libx264",
			"-an",
			segment,
		}
		if err := p.runStep(ctx, job, "slideshow segment", args, segment, p.timeout(p.tools.SlideshowTimeout)); err != nil {
			return "", err
		}
		segments = append(segments, segment)
	}
	return p.concatClips(ctx, job, segments)
}

// normalizeOpening re-encodes the AI opening clip to the slideshow's
// resolution and frame rate so the final concat can stream-copy.
func (p *Pipeline) normalizeOpening(ctx context.Context, job *Job, openingPath string, spec renderSpec) (string, error) {
	out := job.Path("opening-normalized.mp4")
	args := []string{
		"-y",
		"-i", openingPath,
		"-vf", fmt.Sprintf("%s,fps=%d", scaleFilter(spec), spec.fps),
		"-pix_fmt", "yuv420p",
		"-c:v", "libx264",
		"-an",
		out,
	}
	if err := p.runStep(ctx, job, "normalize opening", args, out, p.timeout(p.tools.NormalizeTimeout)); err != nil {
		return "", err
	}
	return out, nil
}

// concatClips joins same-codec clips through the concat demuxer without
// re-encoding.
func (p *Pipeline) concatClips(ctx context.Context, job *Job, clips []string) (string, error) {
	if len(clips) == 1 {
		return clips[0], nil
	}
	list := job.Path(fmt.Sprintf("concat-%d.txt", len(clips)))
	var builder strings.Builder
	for _, clip := range clips {
		fmt.Fprintf(&builder, "file '%s'\n", clip)
	}
	if err := os.WriteFile(list, []byte(builder.String()), 0o644); err != nil {
		return "", fmt.Errorf("write concat list: %w", err)
	}

	out := job.Path(fmt.Sprintf("concat-%d.mp4", len(clips)))
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", list,
		"-c", "copy",
		out,
	}
	if err := p.runStep(ctx, job, "concat clips", args, out, p.timeout(p.tools.ConcatTimeout)); err != nil {
		return "", err
	}
	return out, nil
}

// concatAudio joins per-scene narration files into a single track.
func (p *Pipeline) concatAudio(ctx context.Context, job *Job, audioPaths []string) (string, error) {
	if len(audioPaths) == 1 {
		return audioPaths[0], nil
	}
	args := []string{"-y"}
	for _, audio := range audioPaths {
		args = append(args, "-i", audio)
	}
	var filter strings.Builder
	for i := range audioPaths {
		fmt.Fprintf(&filter, "[%d:a]", i)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=0:a=1[out]", len(audioPaths))

	out := job.Path("narration.wav")
	args = append(args, "-filter_complex", filter.String(), "-map", "[out]", out)
	if err := p.runStep(ctx, job, "concat audio", args, out, p.timeout(p.tools.ConcatTimeout)); err != nil {
		return "", err
	}
	return out, nil
}

// muxAudio pairs the assembled video with the narration track. A positive
// offset delays the narration so it starts after the opening clip rather
// than over it. -shortest keeps the output bounded when durations drift.
func (p *Pipeline) muxAudio(ctx context.Context, job *Job, videoPath, audioPath string, offset float64) (string, error) {
	out := job.Path("muxed.mp4")
	args := []string{"-y", "-i", videoPath}
	if offset > 0 {
		args = append(args, "-itsoffset", fmt.Sprintf("%.3f", offset))
	}
	args = append(args,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		out,
	)
	if err := p.runStep(ctx, job, "mux audio", args, out, p.timeout(p.tools.MuxTimeout)); err != nil {
		return "", err
	}
	return out, nil
}

// burnSubtitles re-encodes the video with the SRT rendered into the frames.
// The subtitle file is addressed relative to the job directory to keep the
// filter expression free of escaping issues.
func (p *Pipeline) burnSubtitles(ctx context.Context, job *Job, videoPath, subtitlePath string) (string, error) {
	relSub, err := filepath.Rel(job.Dir, subtitlePath)
	if err != nil || strings.HasPrefix(relSub, "..") {
		copied := job.Path("burn.srt")
		if err := fileutil.Copy(subtitlePath, copied); err != nil {
			return "", fmt.Errorf("stage subtitle file: %w", err)
		}
		relSub = "burn.srt"
	}

	out := job.Path("final.mp4")
	args := []string{
		"-y",
		"-i", videoPath,
		"-vf", "subtitles=" + relSub,
		"-c:a", "copy",
		out,
	}
	command := proc.Command{
		Name:        p.ffmpeg(),
		Args:        args,
		Dir:         job.Dir,
		Timeout:     p.timeout(p.tools.SubtitleTimeout),
		AllowedBase: p.allowedBase(job),
	}
	if _, err := proc.Run(ctx, command); err != nil {
		return "", fmt.Errorf("subtitle burn: %w", err)
	}
	if err := proc.ValidateOutput(out); err != nil {
		return "", fmt.Errorf("subtitle burn: %w", err)
	}
	return out, nil
}

// handoff moves the finished artifact to the output directory and, when
// storage is enabled, uploads it.
func (p *Pipeline) handoff(ctx context.Context, job *Job, videoPath, title string) (*Result, error) {
	name := fmt.Sprintf("video-%d.mp4", job.VideoID)
	if cleaned := sanitizeTitle(title); cleaned != "" {
		name = fmt.Sprintf("%s-%d.mp4", cleaned, job.VideoID)
	}
	finalPath := filepath.Join(p.outDir, name)
	if err := os.MkdirAll(p.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if err := fileutil.CopyVerified(videoPath, finalPath); err != nil {
		return nil, fmt.Errorf("hand off final video: %w", err)
	}
	if err := proc.ValidateOutput(finalPath); err != nil {
		return nil, err
	}

	result := &Result{LocalPath: finalPath}
	if p.store.Enabled() {
		url, err := p.store.UploadFile(ctx, job.VideoID, finalPath)
		if err != nil {
			return nil, fmt.Errorf("upload final video: %w", err)
		}
		result.RemoteURL = url
	}
	return result, nil
}

func (p *Pipeline) runStep(ctx context.Context, job *Job, step string, args []string, output string, timeout time.Duration) error {
	started := time.Now()
	command := proc.Command{
		Name:        p.ffmpeg(),
		Args:        args,
		Timeout:     timeout,
		AllowedBase: p.allowedBase(job),
	}
	if _, err := proc.Run(ctx, command); err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	if err := proc.ValidateOutput(output); err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	p.logger.Debug("composition step finished", logging.FieldStage, step, "elapsed", time.Since(started))
	return nil
}

func (p *Pipeline) audioDuration(ctx context.Context, job *Job, audioPath string) float64 {
	probed, err := ffprobe.Inspect(ctx, p.ffprobeBinary(), audioPath, p.timeout(p.tools.ProbeTimeout), p.allowedBase(job))
	if err != nil {
		p.logger.Warn("probe slide audio", "path", audioPath, logging.Error(err))
		return 0
	}
	return probed.DurationSeconds()
}

func (p *Pipeline) fail(job *Job, err error) error {
	p.logger.Error("composition failed, workdir preserved",
		logging.FieldVideoID, job.VideoID,
		"workdir", job.Dir,
		logging.Error(err),
	)
	return fmt.Errorf("compose video %d (workdir %s): %w", job.VideoID, job.Dir, err)
}

// allowedBase is the staging root. Jobs live directly under it, as do the
// per-video artifact directories the inputs come from.
func (p *Pipeline) allowedBase(job *Job) string {
	return filepath.Dir(job.Dir)
}

func (p *Pipeline) ffmpeg() string {
	if p.tools.FFmpegBinary != "" {
		return p.tools.FFmpegBinary
	}
	return "ffmpeg"
}

func (p *Pipeline) ffprobeBinary() string {
	if p.tools.FFprobeBinary != "" {
		return p.tools.FFprobeBinary
	}
	return "ffprobe"
}

func (p *Pipeline) timeout(seconds int) time.Duration {
	if seconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(seconds) * time.Second
}

func scaleFilter(spec renderSpec) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
		spec.width, spec.height, spec.width, spec.height,
	)
}

func sanitizeTitle(title string) string {
	title = strings.TrimSpace(strings.ToLower(title))
	if title == "" {
		return ""
	}
	var builder strings.Builder
	lastDash := false
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && builder.Len() > 0 {
				builder.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(builder.String(), "-")
}

