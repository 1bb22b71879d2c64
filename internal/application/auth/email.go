package auth

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

type codeEmailParams struct {
	SiteName string
	Code     string
	Minutes  int
}

var codeEmailTmpl = template.Must(template.New("code").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
<p>Your sign-in code for {{.SiteName}}:</p>
<p style="font-size: 28px; letter-spacing: 6px;"><strong>{{.Code}}</strong></p>
<p>The code is valid for {{.Minutes}} minutes and can be used once.</p>
<p>If you did not request a code, you can ignore this email.</p>
</body>
</html>
`))

// codeEmail renders the subject and HTML body for a login code email.
func codeEmail(siteName, code string, ttl time.Duration) (subject, body string, err error) {
	if siteName == "" {
		siteName = "Portal"
	}
	var buf bytes.Buffer
	err = codeEmailTmpl.Execute(&buf, codeEmailParams{
		SiteName: siteName,
		Code:     code,
		Minutes:  int(ttl.Minutes()),
	})
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("Your %s sign-in code", siteName), buf.String(), nil
}
