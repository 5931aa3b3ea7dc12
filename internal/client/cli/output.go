package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/dmitrijs2005/atlist/internal/client/client"
	"github.com/dmitrijs2005/atlist/internal/client/functions"
	"github.com/dmitrijs2005/atlist/internal/common"
)

var (
	errColor   = color.New(color.FgRed)
	okColor    = color.New(color.FgGreen)
	mutedColor = color.New(color.FgHiBlack)
	lockColor  = color.New(color.FgYellow)
)

// describe turns an error into the inline message shown to the user.
func describe(err error) string {
	var fnErr *functions.Error
	switch {
	case errors.Is(err, client.ErrUnavailable):
		return "record store unreachable, changes are kept on this device"
	case errors.Is(err, common.ErrorForbidden):
		return "you do not have permission to do that"
	case errors.Is(err, common.ErrorUnauthorized):
		return "please sign in again"
	case errors.Is(err, common.ErrRateLimited):
		return "too many requests, try again in a minute"
	case errors.As(err, &fnErr):
		return fnErr.Message
	default:
		return err.Error()
	}
}

func printErr(w io.Writer, err error) {
	errColor.Fprintf(w, "error: %s\n", describe(err))
}

func printOK(w io.Writer, format string, args ...any) {
	okColor.Fprintf(w, format+"\n", args...)
}

func muted(s string) string { return mutedColor.Sprint(s) }

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func printKV(w io.Writer, rows [][2]string) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-*s  %s\n", width, r[0], r[1])
	}
}
