package mailer

import (
	"fmt"
	"math"
)

// bodyData carries everything the body templates interpolate.
type bodyData struct {
	Assignment string // human-readable, underscores already replaced
	FirstName  string
	Grade      float64 // rounded to 2 decimals
	Summary    string
	TAName     string
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// feedbackBody is the regular email with the graded files attached.
func feedbackBody(d bodyData) string {
	return fmt.Sprintf(`Dear %s,

Attached you can find your %s feedback.
Your grade is %v.

Here are some summary statistics for %s:
%s

Best,

%s
`, d.FirstName, d.Assignment, d.Grade, d.Assignment, d.Summary, d.TAName)
}

// noSubmissionBody is sent when no files were found for the student.
func noSubmissionBody(d bodyData) string {
	return fmt.Sprintf(`Dear %s,

Your grade from %s is %v.
It looks like you did not submit any files. If you think this is a mistake, please reply to this email.

Here are some summary statistics for %s:
%s

Best,

%s
`, d.FirstName, d.Assignment, d.Grade, d.Assignment, d.Summary, d.TAName)
}

// largeFileBody replaces the feedback email when the transport rejected the
// attachments for size; the files travel via shared storage instead.
func largeFileBody(d bodyData) string {
	return fmt.Sprintf(`Dear %s,

Your grade from %s is %v.

Here are some summary statistics for %s:
%s

Because your files exceed the email size limit, they are not attached here. I will send you a drive link with your feedback. Please save the files to your local machine.

Best,

%s
`, d.FirstName, d.Assignment, d.Grade, d.Assignment, d.Summary, d.TAName)
}
