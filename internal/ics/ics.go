// Package ics renders calendar exports in the RFC 5545 iCalendar text format.
package ics

import (
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultProdID identifies the exporting product.
const DefaultProdID = "-//study-planner//calendar export//EN"

const (
	lineBreak = "\r\n"
	utcLayout = "20060102T150405Z"
	// maxLineOctets is the longest content line before folding, excluding CRLF.
	maxLineOctets = 75
)

// Event is a single VEVENT block.
type Event struct {
	UID         string
	Start       time.Time
	End         time.Time
	Summary     string
	Description string
	Location    string
}

// Calendar is a VCALENDAR container.
type Calendar struct {
	ProdID string
	Stamp  time.Time
	Events []Event
}

// Escape escapes TEXT property values. Backslashes go first so later escapes
// are not doubled, then newlines, commas and semicolons.
func Escape(value string) string {
	value = strings.ReplaceAll(value, "\r\n", "\n")
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, "\n", `\n`)
	value = strings.ReplaceAll(value, ",", `\,`)
	value = strings.ReplaceAll(value, ";", `\;`)
	return value
}

// FormatUTC renders t in basic UTC form, e.g. 20240304T090000Z.
func FormatUTC(t time.Time) string {
	return t.UTC().Format(utcLayout)
}

// Fold splits a content line longer than 75 octets into CRLF + space
// continuations. Splits never fall inside a UTF-8 sequence.
func Fold(line string) string {
	if len(line) <= maxLineOctets {
		return line
	}

	var b strings.Builder
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString(lineBreak + " ")
		line = line[cut:]
		// the leading space counts towards the continuation's length
		limit = maxLineOctets - 1
	}
	b.WriteString(line)
	return b.String()
}

// Lines returns the unfolded content lines of the calendar in order.
func (c Calendar) Lines() []string {
	prodID := c.ProdID
	if prodID == "" {
		prodID = DefaultProdID
	}
	stamp := FormatUTC(c.Stamp)

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + prodID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
	}
	for _, event := range c.Events {
		lines = append(lines,
			"BEGIN:VEVENT",
			"UID:"+event.UID,
			"DTSTAMP:"+stamp,
			"DTSTART:"+FormatUTC(event.Start),
			"DTEND:"+FormatUTC(event.End),
			"SUMMARY:"+Escape(event.Summary),
		)
		if event.Description != "" {
			lines = append(lines, "DESCRIPTION:"+Escape(event.Description))
		}
		if event.Location != "" {
			lines = append(lines, "LOCATION:"+Escape(event.Location))
		}
		lines = append(lines, "END:VEVENT")
	}
	return append(lines, "END:VCALENDAR")
}

// String folds and joins the content lines with CRLF, terminating the last
// line too.
func (c Calendar) String() string {
	var b strings.Builder
	for _, line := range c.Lines() {
		b.WriteString(Fold(line))
		b.WriteString(lineBreak)
	}
	return b.String()
}

// Bytes is String as a byte slice.
func (c Calendar) Bytes() []byte {
	return []byte(c.String())
}
