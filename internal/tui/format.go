package tui

import (
	"fmt"

	"github.com/charmbracelet/x/ansi"

	"github.com/akyairhashvil/marathon/internal/config"
	"github.com/akyairhashvil/marathon/internal/models"
)

// statusBadge renders a submission status in the theme's color for it.
func statusBadge(s models.SubmissionStatus) string {
	switch s {
	case models.SubmissionPending:
		return CurrentTheme.Pending.Render("PENDING")
	case models.SubmissionApproved:
		return CurrentTheme.Approved.Render("APPROVED")
	case models.SubmissionRejected:
		return CurrentTheme.Rejected.Render("REJECTED")
	case models.SubmissionNeedsRedo:
		return CurrentTheme.Redo.Render("REDO")
	default:
		return CurrentTheme.Dim.Render("UNKNOWN")
	}
}

// FormatProgress formats completion as "completed/total (pct%)".
func FormatProgress(p models.Progress) string {
	return fmt.Sprintf("%d/%d (%.0f%%)", p.Completed, p.Total, p.Percentage)
}

func truncateLabel(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if ansi.StringWidth(text) <= max {
		return text
	}
	return ansi.Truncate(text, max, config.TruncationSuffix)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
