package certificate

import (
	"bytes"
	"errors"
	htmltmpl "html/template"
	"net/url"
	"time"

	"github.com/productfruits/academy/core"
	"github.com/productfruits/academy/core/course"
	"github.com/productfruits/academy/core/user"
)

var (
	// errors
	ErrNotCompleted = errors.New("course has no completed milestones")
	ErrNotPermitted = errors.New("user may not download certificates")
)

// LatestCompletion returns the most recent milestone completedAt across all
// chapters. This timestamp — not the enrollment's own completedAt — is the
// source of truth for certificate validity: the two can differ when
// completions are backfilled out of order.
func LatestCompletion(crs course.Course) (time.Time, bool) {
	var latest time.Time
	var found bool
	for _, m := range crs.Milestones() {
		if m.Completed && m.CompletedAt.Valid && m.CompletedAt.Time.After(latest) {
			latest = m.CompletedAt.Time
			found = true
		}
	}
	return latest, found
}

// ValidityEnd computes the certificate expiry: latest milestone completion
// plus the course's validity months, calendar-month arithmetic.
func ValidityEnd(crs course.Course) (time.Time, bool) {
	completed, ok := LatestCompletion(crs)
	if !ok {
		return time.Time{}, false
	}
	return completed.AddDate(0, crs.CertificateValidity.Months, 0), true
}

// IsValid reports whether the course's certificate is currently valid:
// the validity window must end strictly after now. False when no milestone
// is completed.
func IsValid(crs course.Course) bool {
	end, ok := ValidityEnd(crs)
	if !ok {
		return false
	}
	return end.After(core.NowFunc())
}

// LinkedInShareURL builds the prefilled add-to-profile link. Issue and
// expiration stamps are yyyymm of the completion and validity-end dates.
func LinkedInShareURL(crs course.Course, certURL string) (string, error) {
	completed, ok := LatestCompletion(crs)
	if !ok {
		return "", ErrNotCompleted
	}
	end := completed.AddDate(0, crs.CertificateValidity.Months, 0)

	params := url.Values{}
	params.Set("startTask", "CERTIFICATION_NAME")
	params.Set("name", crs.Title+" Certification")
	params.Set("organizationName", "ProductFruits")
	params.Set("certUrl", certURL)
	params.Set("issueDate", completed.Format("200601"))
	params.Set("expirationDate", end.Format("200601"))
	return "https://www.linkedin.com/profile/add?" + params.Encode(), nil
}

var documentTmpl = htmltmpl.Must(htmltmpl.New("certificate").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.CourseTitle}} — Certificate of Completion</title>
<style>
  body { font-family: Helvetica, Arial, sans-serif; text-align: center; }
  .frame { border: 2px solid #ff751d; margin: 2em; padding: 4em 2em; }
  .brand { color: #ff751d; font-size: 1.6em; font-weight: bold; text-align: left; }
  h1 { font-size: 2.4em; color: #333; }
  .name, .course { font-size: 1.6em; font-weight: bold; }
  .instructor { font-style: italic; margin-top: 4em; }
</style>
</head>
<body>
<div class="frame">
  <div class="brand">ProductFruits</div>
  <h1>Certificate of Completion</h1>
  <p>This is to certify that</p>
  <p class="name">{{.StudentName}}</p>
  <p>has successfully completed the course</p>
  <p class="course">{{.CourseTitle}}</p>
  <p>Completed on {{.CompletedOn}}</p>
  <p class="instructor">{{.Instructor}}<br>Instructor</p>
</div>
</body>
</html>
`))

// Render produces the printable certificate document. The user needs the
// canDownloadCertificates permission and at least one completed milestone.
func Render(crs course.Course, usr user.User) ([]byte, error) {
	if !usr.Permissions.CanDownloadCertificates {
		return nil, ErrNotPermitted
	}
	completed, ok := LatestCompletion(crs)
	if !ok {
		return nil, ErrNotCompleted
	}

	var buff bytes.Buffer
	err := documentTmpl.Execute(&buff, struct {
		StudentName string
		CourseTitle string
		CompletedOn string
		Instructor  string
	}{
		StudentName: usr.FullName(),
		CourseTitle: crs.Title,
		CompletedOn: completed.Format("January 2, 2006"),
		Instructor:  crs.Instructor.Name,
	})
	if err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}
