package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

// EventKind is the direction of a quadrant transition.
type EventKind string

const (
	// Entry marks a colour arriving in a quadrant (or in None).
	Entry EventKind = "Entry"
	// Exit marks a colour leaving its previous quadrant.
	Exit EventKind = "Exit"
)

// Event is one record in the append-only event log.
type Event struct {
	// TimestampMs is the source playback position of the frame, in milliseconds.
	TimestampMs float64
	Quadrant    Quadrant
	Color       string
	Kind        EventKind
}

// LogLine renders the event as one line of the text log, without the newline:
// "<ms>, <quadrant>, <color>, <kind>".
func (e Event) LogLine() string {
	return fmt.Sprintf("%.0f, %s, %s, %s", e.TimestampMs, e.Quadrant, e.Color, e.Kind)
}

// Echo renders the human readable stdout form of the event.
func (e Event) Echo() string {
	return fmt.Sprintf("Time: %.0f ms, Quadrant: %s, Ball Color: %s, Event: %s",
		e.TimestampMs, e.Quadrant, e.Color, e.Kind)
}

// WriteEventLog writes one LogLine per event to w.
func WriteEventLog(w io.Writer, events []Event) error {
	bw := bufio.NewWriter(w)
	for _, e := range events {
		if _, err := bw.WriteString(e.LogLine() + "\n"); err != nil {
			return errors.Wrap(err, "write event")
		}
	}
	return errors.Wrap(bw.Flush(), "flush event log")
}

// SaveEventLog creates (or truncates) path and writes the events to it.
// The file is created even when there are no events.
func SaveEventLog(path string, events []Event) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(ErrSinkUnavailable, "create event log %s: %v", path, err)
	}

	if err := WriteEventLog(f, events); err != nil {
		f.Close()
		return errors.Wrapf(err, "event log %s", path)
	}
	return errors.Wrapf(f.Close(), "close event log %s", path)
}

// EchoEvents prints every event in its human readable form, one per line.
func EchoEvents(w io.Writer, events []Event) error {
	for _, e := range events {
		if _, err := fmt.Fprintln(w, e.Echo()); err != nil {
			return errors.Wrap(err, "echo event")
		}
	}
	return nil
}
