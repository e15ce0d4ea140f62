package cmd

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/urfave/cli"
)

// List the CPUs available for rendering.
func ListDevices(ctx *cli.Context) error {
	setupLogging(ctx)

	cpuInfo, err := cpu.Info()
	if err != nil {
		return fmt.Errorf("could not query cpu info: %w", err)
	}

	physical, err := cpu.Counts(false)
	if err != nil {
		return fmt.Errorf("could not query physical core count: %w", err)
	}
	logical, err := cpu.Counts(true)
	if err != nil {
		return fmt.Errorf("could not query logical core count: %w", err)
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Socket", "Model", "Vendor", "Cores", "Speed"})

	// Linux reports one entry per logical cpu; group them by physical socket.
	seen := make(map[string]bool)
	for _, info := range cpuInfo {
		key := info.PhysicalID + "/" + info.ModelName
		if seen[key] {
			continue
		}
		seen[key] = true
		table.Append([]string{
			info.PhysicalID,
			info.ModelName,
			info.VendorID,
			fmt.Sprintf("%d", info.Cores),
			fmt.Sprintf("%.0f MHz", info.Mhz),
		})
	}

	footer := fmt.Sprintf("%d physical / %d logical", physical, logical)
	if vm, err := mem.VirtualMemory(); err == nil {
		footer += fmt.Sprintf(" / %s RAM", fmtBytes(vm.Total))
	}
	table.SetFooter([]string{"", "", "", "TOTAL", footer})
	table.Render()

	logger.Noticef("system provides %d logical cpu(s); render workers default to %d\n%s", logical, runtime.NumCPU(), buf.String())
	return nil
}

func fmtBytes(size uint64) string {
	switch {
	case size >= 1<<30:
		return fmt.Sprintf("%3.1f Gb", float64(size)/float64(1<<30))
	case size >= 1<<20:
		return fmt.Sprintf("%3.1f Mb", float64(size)/float64(1<<20))
	}
	return fmt.Sprintf("%d bytes", size)
}
