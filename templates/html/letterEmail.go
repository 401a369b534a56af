package templates

import (
	"fmt"
	"html"
	"strings"
)

// RenderLetterEmail wraps a generated letter in a minimal HTML shell for
// email delivery. The letter text is HTML-escaped and newlines become
// <br> tags; the plain text part of the email carries the letter
// unmodified.
func RenderLetterEmail(subject, body string) string {
	escaped := html.EscapeString(body)
	htmlBody := strings.ReplaceAll(escaped, "\n", "<br>")
	safeSubject := html.EscapeString(subject)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: Georgia, 'Times New Roman', serif; margin: 0; padding: 0; background-color: #f4f4f1; }
    .container { max-width: 640px; margin: 0 auto; background-color: #ffffff; }
    .content { padding: 40px 48px; color: #1a1a1a; line-height: 1.7; font-size: 15px; }
    .footer { padding: 24px 48px; color: #8a8a8a; font-size: 12px; border-top: 1px solid #e2e2de; }
  </style>
</head>
<body>
  <div class="container">
    <div class="content">
      %s
    </div>
    <div class="footer">
      <p>This subject access request was composed and sent on behalf of the data subject named above.</p>
    </div>
  </div>
</body>
</html>`, safeSubject, htmlBody)
}
