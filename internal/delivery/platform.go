package delivery

import (
	"regexp"
	"strings"
)

// Family is the browser family as far as file saving cares.
type Family string

const (
	FamilyOther  Family = "other"
	FamilySafari Family = "safari"
)

// Platform is what the user-agent string tells us about the host.
type Platform struct {
	Family      Family
	IsTouchHost bool
	IsIOS       bool
}

var touchUA = regexp.MustCompile(`(?i)Android|webOS|iPhone|iPad|iPod|BlackBerry|IEMobile|Opera Mini`)

// ClassifyUserAgent inspects a user-agent string. Chrome and Android user
// agents also advertise "Safari", so either word rules Safari out.
func ClassifyUserAgent(ua string) Platform {
	lower := strings.ToLower(ua)
	p := Platform{Family: FamilyOther}
	if strings.Contains(lower, "safari") &&
		!strings.Contains(lower, "chrome") &&
		!strings.Contains(lower, "android") {
		p.Family = FamilySafari
	}
	p.IsTouchHost = touchUA.MatchString(ua)
	p.IsIOS = p.IsTouchHost && (strings.Contains(ua, "iPhone") || strings.Contains(ua, "iPad"))
	return p
}

// Capabilities describes the host features the chain may use.
type Capabilities struct {
	Platform
	HasBlobDownload bool
	HasShare        bool
	HasClipboard    bool
}

// SaveInstructions returns platform-specific advice for finding or saving
// the file.
func SaveInstructions(p Platform, filename string) string {
	var b strings.Builder
	b.WriteString("Your FIQuest save file has been prepared.\n\n")
	switch {
	case p.IsTouchHost && p.IsIOS:
		b.WriteString("iOS Instructions:\n")
		b.WriteString("1. Tap \"Share\" → \"Save to Files\"\n")
		b.WriteString("2. Choose location (iCloud Drive recommended)\n")
	case p.IsTouchHost:
		b.WriteString("Android Instructions:\n")
		b.WriteString("1. File should download automatically\n")
		b.WriteString("2. Check Downloads folder\n")
	case p.Family == FamilySafari:
		b.WriteString("Safari Instructions:\n")
		b.WriteString("1. Press Cmd+S to save\n")
		b.WriteString("2. Choose location\n")
	default:
		b.WriteString("Desktop Instructions:\n")
		b.WriteString("1. File should download automatically\n")
		b.WriteString("2. Check Downloads folder\n")
	}
	b.WriteString("3. Filename: " + filename)
	return b.String()
}

// DataURL builds data:<type>;charset=utf-8,<payload> with the payload
// percent-encoded the way browsers' encodeURIComponent does it.
func DataURL(payload, contentType string) string {
	return "data:" + contentType + ";charset=utf-8," + encodeURIComponent(payload)
}

func encodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
