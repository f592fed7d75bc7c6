package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"diarist/internal/transcript"
)

func renderTranscript(segments []transcript.Segment) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Speaker", "Time", "Text"})

	for _, seg := range segments {
		tw.AppendRow(table.Row{
			seg.Speaker,
			fmt.Sprintf("%s - %s", formatTime(seg.Start), formatTime(seg.End)),
			seg.Text,
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignLeft, WidthMax: 72},
	})

	return tw.Render()
}

func formatTime(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
