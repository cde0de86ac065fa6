package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"storefront/internal/model"
	"storefront/internal/notice"
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// quiet suppresses success and info lines.
var quiet bool

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorBlue, colorCyan, colorGray, colorBold = "", "", "", ""
}

func printSuccess(format string, args ...any) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
}

func printWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
}

func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

// printNotice renders a user notice with the matching marker.
func printNotice(n notice.Notice) {
	switch n.Level {
	case notice.Success:
		printSuccess("%s", n.Message)
	case notice.Error:
		printError("%s", n.Message)
	case notice.Warning:
		printWarning("%s", n.Message)
	default:
		printInfo("%s", n.Message)
	}
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// tableWriter buffers rows and renders them borderless on Flush.
type tableWriter struct {
	w io.Writer
	t *table.Table
}

func newTable(w io.Writer, headers ...string) *tableWriter {
	cell := lipgloss.NewStyle().PaddingRight(2)
	header := cell
	if colorBold != "" {
		header = header.Bold(true)
	}
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).BorderBottom(false).BorderLeft(false).BorderRight(false).
		BorderColumn(false).BorderHeader(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	if len(headers) > 0 {
		t.Headers(headers...)
	}
	return &tableWriter{w: w, t: t}
}

func (tw *tableWriter) Row(cells ...any) {
	row := make([]string, len(cells))
	for i, c := range cells {
		row[i] = fmt.Sprint(c)
	}
	tw.t.Row(row...)
}

func (tw *tableWriter) Flush() {
	fmt.Fprintln(tw.w, tw.t.Render())
}

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "%s%s%s\n", colorBold, title, colorReset)
}

func money(m model.Money) string {
	return m.Format()
}

// stockLabel mirrors the product card badge.
func stockLabel(p model.Product) string {
	switch {
	case p.Stock <= 0:
		return colorRed + "out of stock" + colorReset
	case p.Stock <= 5:
		return colorYellow + "only " + strconv.Itoa(p.Stock) + " left" + colorReset
	default:
		return colorGreen + "in stock" + colorReset
	}
}

func statusColor(s model.OrderStatus) string {
	switch s {
	case model.OrderDelivered:
		return colorGreen + string(s) + colorReset
	case model.OrderCancelled:
		return colorRed + string(s) + colorReset
	case model.OrderShipped:
		return colorBlue + string(s) + colorReset
	default:
		return colorCyan + string(s) + colorReset
	}
}

// pageWindow renders the pager, bracketing the current page.
func pageWindow(window []int, current int) string {
	parts := make([]string, 0, len(window))
	for _, p := range window {
		if p == current {
			parts = append(parts, colorBold+"["+strconv.Itoa(p)+"]"+colorReset)
			continue
		}
		parts = append(parts, strconv.Itoa(p))
	}
	return strings.Join(parts, " ")
}

func formatAddress(a model.Address) string {
	parts := []string{a.FullName, a.AddressLine1}
	if a.AddressLine2 != "" {
		parts = append(parts, a.AddressLine2)
	}
	parts = append(parts, a.City, a.State+" "+a.ZipCode)
	if a.Country != "" {
		parts = append(parts, a.Country)
	}
	return strings.Join(parts, ", ")
}
