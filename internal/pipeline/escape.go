package pipeline

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// entityRE matches character references that are already escaped.
	entityRE = regexp.MustCompile(`^&(?:#[0-9]+|#[xX][0-9a-fA-F]+|[a-zA-Z][a-zA-Z0-9]*);`)

	htmlReplacer = strings.NewReplacer(
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#039;",
	)

	linkDisallowed = regexp.MustCompile(`[^a-zA-Z0-9\-~+_.?#=!&;,/:%@$|*'()\[\]\x{80}-\x{10FFFF}]`)
	phpFileRE      = regexp.MustCompile(`(?i)^[a-z0-9-]+?\.php`)
)

// linkSchemes are the protocols allowed in rendered links.
var linkSchemes = map[string]bool{
	"http": true, "https": true, "ftp": true, "ftps": true, "mailto": true,
	"news": true, "irc": true, "irc6": true, "ircs": true, "gopher": true,
	"nntp": true, "feed": true, "telnet": true, "mms": true, "rtsp": true,
	"sms": true, "svn": true, "tel": true, "fax": true, "xmpp": true,
	"webcal": true, "urn": true,
}

// EscapeHTML escapes text for HTML element content and attribute values.
// Existing character references are kept as they are.
func EscapeHTML(s string) string {
	if !strings.ContainsAny(s, `&<>"'`) {
		return s
	}
	var b strings.Builder
	for {
		i := strings.IndexByte(s, '&')
		if i < 0 {
			break
		}
		b.WriteString(htmlReplacer.Replace(s[:i]))
		if entityRE.MatchString(s[i:]) {
			b.WriteByte('&')
		} else {
			b.WriteString("&amp;")
		}
		s = s[i+1:]
	}
	b.WriteString(htmlReplacer.Replace(s))
	return b.String()
}

// EscapeURL percent-encodes s as a URL path component (spaces become %20).
func EscapeURL(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// EscapeLink cleans s for use as an href. Characters outside the URL
// repertoire are dropped, unknown protocols empty the link, and bare host
// names get "http://".
func EscapeLink(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, " ", "%20")
	s = linkDisallowed.ReplaceAllString(s, "")
	if s == "" {
		return ""
	}

	if !strings.Contains(s, ":") && !strings.ContainsRune("/#?", rune(s[0])) && !phpFileRE.MatchString(s) {
		s = "http://" + s
	}
	if i := strings.IndexByte(s, ':'); i > 0 && !strings.ContainsAny(s[:i], "/?#") {
		if !linkSchemes[asciiLower(s[:i])] {
			return ""
		}
	}

	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&", "&#038;")
	return strings.ReplaceAll(s, "'", "&#039;")
}
