package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"xldict/profile"
	"xldict/worksheet"
)

type TableWriter struct{}

func (w *TableWriter) Write(out io.Writer, table Table) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	overflow := table.hasOverflow()

	header := append([]string{"LINE"}, table.FieldNames...)
	if overflow {
		header = append(header, restColumn(table.RestKey))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, record := range table.Records {
		cells := make([]string, 0, len(header))
		cells = append(cells, fmt.Sprint(record.LineNum))
		for _, name := range table.FieldNames {
			cells = append(cells, cleanCell(worksheet.Text(record.Values[name])))
		}
		if overflow {
			rest := make([]string, 0, len(record.Rest))
			for _, cell := range record.Rest {
				rest = append(rest, cleanCell(worksheet.Text(cell)))
			}
			cells = append(cells, strings.Join(rest, ", "))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush table output: %w", err)
	}
	return nil
}

// WriteProfile prints one line per column followed by the record totals.
func WriteProfile(out io.Writer, result profile.Profile) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "COLUMN\tTOTAL\tBLANK\tDISTINCT\tNUMERIC\tMIN\tMAX\tMEAN\tMEDIAN\tSTDDEV\t")
	for _, column := range result.Columns {
		stats := []string{"-", "-", "-", "-", "-"}
		if s := column.Summary; s != nil {
			stats = []string{
				formatNumber(s.Min),
				formatNumber(s.Max),
				formatNumber(s.Mean),
				formatNumber(s.Median),
				formatNumber(s.StdDev),
			}
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\t\n",
			cleanCell(column.Name), column.Total, column.Blank, column.Distinct, column.Numeric,
			strings.Join(stats, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush profile output: %w", err)
	}

	_, err := fmt.Fprintf(out, "records: %d, overflow: %d\n", result.Records, result.Overflow)
	return err
}

func restColumn(restKey *string) string {
	if restKey != nil {
		return *restKey
	}
	return DefaultRestKey
}

func formatNumber(value float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.4f", value), "0"), ".")
}

func cleanCell(value string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(value)
}
