package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// Callback data values and prefixes.
const (
	cbParticipate     = "participate"
	cbLearnMore       = "learn_more"
	cbStartMenu       = "start_menu"
	cbShowMyTasks     = "show_my_tasks"
	cbCurrentTask     = "current_task"
	cbMyStatus        = "my_status"
	cbHelp            = "help"
	cbHelpSubmitVoice = "help_submit_voice"

	cbSelectTask     = "select_task_"
	cbSuggestedReply = "suggested_reply_"
	cbViewUsers      = "view_users"
	cbViewTasks      = "view_tasks"
	cbViewSubs       = "view_subs"
	cbApprove        = "approve_"
	cbReject         = "reject_"
	cbRedo           = "redo_"
)

// callback is parsed button data. Arg holds the action for suggested replies.
type callback struct {
	Kind string
	Arg  string
	N    int64
}

// parseCallback splits button data into its kind and numeric argument.
func parseCallback(data string) (callback, error) {
	switch data {
	case cbParticipate, cbLearnMore, cbStartMenu, cbShowMyTasks, cbCurrentTask,
		cbMyStatus, cbHelp, cbHelpSubmitVoice:
		return callback{Kind: data}, nil
	}

	if rest, ok := strings.CutPrefix(data, cbSuggestedReply); ok {
		action, num, ok := strings.Cut(rest, "_")
		if !ok || action == "" {
			return callback{}, fmt.Errorf("malformed callback %q", data)
		}
		n, err := strconv.ParseInt(num, 10, 64)
		if err != nil {
			return callback{}, fmt.Errorf("malformed callback %q", data)
		}
		return callback{Kind: cbSuggestedReply, Arg: action, N: n}, nil
	}

	for _, prefix := range []string{cbSelectTask, cbApprove, cbReject, cbRedo} {
		if rest, ok := strings.CutPrefix(data, prefix); ok {
			n, err := strconv.ParseInt(rest, 10, 64)
			if err != nil {
				return callback{}, fmt.Errorf("malformed callback %q", data)
			}
			return callback{Kind: prefix, N: n}, nil
		}
	}
	for _, prefix := range []string{cbViewUsers, cbViewTasks, cbViewSubs} {
		if rest, ok := strings.CutPrefix(data, prefix+"_"); ok {
			n, err := strconv.ParseInt(rest, 10, 64)
			if err != nil || n < 0 {
				return callback{}, fmt.Errorf("malformed callback %q", data)
			}
			return callback{Kind: prefix, N: n}, nil
		}
	}
	return callback{}, fmt.Errorf("unknown callback %q", data)
}

func selectTaskData(day int) string {
	return cbSelectTask + strconv.Itoa(day)
}

func suggestedReplyData(action string, day int) string {
	return fmt.Sprintf("%s%s_%d", cbSuggestedReply, action, day)
}

func pageData(prefix string, page int) string {
	return fmt.Sprintf("%s_%d", prefix, page)
}

func reviewData(prefix string, id int64) string {
	return prefix + strconv.FormatInt(id, 10)
}
