package bili

import "strings"

// Credential carries the Bilibili session cookies. It is immutable; an
// absent credential restricts the client to public endpoints.
type Credential struct {
	Sessdata    string
	BiliJct     string
	AcTimeValue string
}

// Valid reports whether the credential carries a usable session cookie.
func (c *Credential) Valid() bool {
	return c != nil && strings.TrimSpace(c.Sessdata) != ""
}

// CookieString renders the Cookie header value for API requests.
func (c *Credential) CookieString() string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("SESSDATA=")
	b.WriteString(c.Sessdata)
	b.WriteString("; bili_jct=")
	b.WriteString(c.BiliJct)
	if c.AcTimeValue != "" {
		b.WriteString("; ac_time_value=")
		b.WriteString(c.AcTimeValue)
	}
	return b.String()
}
