package renderer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

type FrameStats struct {
	// Frame setup of the last render request.
	Params RenderParams

	// Number of fully accumulated samples.
	CompletedSamples uint32

	// Time spent rendering each completed sample.
	SampleTimes []time.Duration

	// Total render time so far.
	RenderTime time.Duration
}

// Get the time spent on the last completed sample.
func (fs FrameStats) LastSampleTime() time.Duration {
	if len(fs.SampleTimes) == 0 {
		return 0
	}
	return fs.SampleTimes[len(fs.SampleTimes)-1]
}

// Get the mean sample time.
func (fs FrameStats) AverageSampleTime() time.Duration {
	if len(fs.SampleTimes) == 0 {
		return 0
	}

	var total time.Duration
	for _, t := range fs.SampleTimes {
		total += t
	}
	return total / time.Duration(len(fs.SampleTimes))
}

// Get render progress in the [0, 1] range.
func (fs FrameStats) Progress() float32 {
	if fs.Params.SampleCount == 0 {
		return 0
	}
	return float32(fs.CompletedSamples) / float32(fs.Params.SampleCount)
}

// Generate a table with per-sample render times.
func (fs FrameStats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Sample", "Render time"})
	for index, t := range fs.SampleTimes {
		table.Append([]string{fmt.Sprint(index + 1), fmtDuration(t)})
	}
	table.SetFooter([]string{
		fmt.Sprintf("Average (%d/%d)", fs.CompletedSamples, fs.Params.SampleCount),
		fmtDuration(fs.AverageSampleTime()),
	})

	table.Render()
	return buf.String()
}

func fmtDuration(d time.Duration) string {
	return fmt.Sprintf("%3.3f ms", float64(d.Nanoseconds())/1e6)
}
