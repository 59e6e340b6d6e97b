package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/specscope/pkg/analytics"
	"github.com/Sumatoshi-tech/specscope/pkg/dataset"
	"github.com/Sumatoshi-tech/specscope/pkg/observability"
	"github.com/Sumatoshi-tech/specscope/pkg/report"
	"github.com/Sumatoshi-tech/specscope/pkg/timeline"
)

var (
	// ErrInvalidBucket indicates a --bucket value outside 0..10.
	ErrInvalidBucket = errors.New("bucket must be within 0..10")
	// ErrInvalidPosition indicates a --position value outside [0, 1].
	ErrInvalidPosition = errors.New("position must be within [0, 1]")
)

// filterFlags are shared by buckets and timeline.
type filterFlags struct {
	metric       string
	reviewedOnly bool
	bucket       int
}

const noBucket = -1

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.metric, "metric", string(dataset.MetricLines), "magnitude: groups, lines, patchBytes")
	cmd.Flags().BoolVar(&f.reviewedOnly, "reviewed-only", false, "ignore unreviewed commits")
	cmd.Flags().IntVar(&f.bucket, "bucket", noBucket, "only commits touching this bucket (0..10)")
}

func (f *filterFlags) parse() (dataset.Metric, *dataset.Bucket, error) {
	metric, err := dataset.ParseMetric(f.metric)
	if err != nil {
		return "", nil, err
	}

	if f.bucket == noBucket {
		return metric, nil, nil
	}

	b := dataset.Bucket(f.bucket)
	if f.bucket < 0 || !b.Valid() {
		return "", nil, fmt.Errorf("%w: %d", ErrInvalidBucket, f.bucket)
	}

	return metric, &b, nil
}

var analyticsFormats = []string{report.FormatText, report.FormatJSON, report.FormatYAML, report.FormatHTML}

func newBucketsCommand(flags *rootFlags) *cobra.Command {
	var (
		filter     filterFlags
		mode       string
		resolution string
		format     string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "buckets",
		Short: "Aggregate review buckets over time",
		Long: `Sum each commit's magnitude into its review buckets, grouped by time window.
Soft mode splits a group's magnitude evenly across its buckets; hard mode
credits the full magnitude to every bucket, so totals can exceed the real
magnitude. Unreviewed commits count toward bucket 0.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outFormat, err := validateFormat(format, analyticsFormats...)
			if err != nil {
				return err
			}

			metric, bucket, err := filter.parse()
			if err != nil {
				return err
			}

			parsedMode, err := analytics.ParseMode(mode)
			if err != nil {
				return err
			}

			res, err := analytics.ParseResolution(resolution)
			if err != nil {
				return err
			}

			e, err := flags.open(cmd, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer e.close()

			opts := analytics.Options{
				Metric:       metric,
				Mode:         parsedMode,
				Resolution:   res,
				ReviewedOnly: filter.reviewedOnly,
				Bucket:       bucket,
			}

			matrix := e.session.Buckets(opts)
			data := report.NewBuckets(&matrix, e.session.Dataset(), opts)

			return writeOutput(cmd, output, func(w io.Writer) error {
				return report.WriteBuckets(w, outFormat, &data)
			})
		},
	}

	filter.register(cmd)
	cmd.Flags().StringVar(&mode, "mode", string(analytics.ModeSoft), "attribution: soft or hard")
	cmd.Flags().StringVar(&resolution, "resolution", string(analytics.ResolutionDay), "time window: day, hour, 15m, 5m")
	cmd.Flags().StringVarP(&format, "format", "f", report.FormatText, formatFlagHelp(analyticsFormats...))
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func newTimelineCommand(flags *rootFlags) *cobra.Command {
	var (
		filter   filterFlags
		position float64
		speed    float64
		format   string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Per-commit magnitude series",
		Long: `List every commit's magnitude scaled to the largest commit passing the
filters. --position resolves a slider fraction to a commit and --speed shows
the playback step for a speed multiplier.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outFormat, err := validateFormat(format, analyticsFormats...)
			if err != nil {
				return err
			}

			metric, bucket, err := filter.parse()
			if err != nil {
				return err
			}

			positionSet := cmd.Flags().Changed("position")
			if positionSet && (position < 0 || position > 1) {
				return fmt.Errorf("%w: %g", ErrInvalidPosition, position)
			}

			e, err := flags.open(cmd, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer e.close()

			views := e.session.Views()
			tf := timeline.Filter{ReviewedOnly: filter.reviewedOnly, Bucket: bucket}
			points := e.session.Timeline(metric, tf)

			data := report.NewTimeline(views, points, metric)
			data.Summary = timeline.Summarize(views, metric, tf)

			if positionSet {
				data.Selected = timeline.PositionToCommitIndex(position, len(points))
			}

			return writeOutput(cmd, output, func(w io.Writer) error {
				if err := report.WriteTimeline(w, outFormat, &data); err != nil {
					return err
				}

				if outFormat == report.FormatText && cmd.Flags().Changed("speed") {
					fmt.Fprintf(w, "playback step at %gx: %s\n", speed, timeline.PlaybackInterval(speed))
				}

				return nil
			})
		},
	}

	filter.register(cmd)
	cmd.Flags().Float64Var(&position, "position", 0, "slider fraction in [0, 1] to resolve to a commit")
	cmd.Flags().Float64Var(&speed, "speed", 1, "playback speed multiplier")
	cmd.Flags().StringVarP(&format, "format", "f", report.FormatText, formatFlagHelp(analyticsFormats...))
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	return cmd
}
