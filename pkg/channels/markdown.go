package channels

import (
	"fmt"
	"regexp"
	"strings"
)

// Light markdown-to-Telegram-HTML conversion for model replies. Telegram
// rejects unknown tags, so only the subset it supports is produced; on a
// parse failure Send retries as plain text.

var (
	reFence   = regexp.MustCompile("(?s)```\\w*\\n?(.*?)```")
	reInline  = regexp.MustCompile("`([^`\n]+)`")
	reHeading = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	reBold    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reItalic  = regexp.MustCompile(`_([^_\n]+)_`)
	reStrike  = regexp.MustCompile(`~~(.+?)~~`)
	reBullet  = regexp.MustCompile(`(?m)^[-*]\s+`)
)

func markdownToTelegramHTML(text string) string {
	if text == "" {
		return ""
	}

	var fences, inlines []string

	text = reFence.ReplaceAllStringFunc(text, func(m string) string {
		fences = append(fences, reFence.FindStringSubmatch(m)[1])
		return fmt.Sprintf("\x00F%d\x00", len(fences)-1)
	})
	text = reInline.ReplaceAllStringFunc(text, func(m string) string {
		inlines = append(inlines, reInline.FindStringSubmatch(m)[1])
		return fmt.Sprintf("\x00I%d\x00", len(inlines)-1)
	})

	text = reHeading.ReplaceAllString(text, "")
	text = escapeHTML(text)
	text = reBold.ReplaceAllString(text, "<b>$1</b>")
	text = reItalic.ReplaceAllString(text, "<i>$1</i>")
	text = reStrike.ReplaceAllString(text, "<s>$1</s>")
	text = reBullet.ReplaceAllString(text, "• ")

	for i, code := range fences {
		text = strings.Replace(text,
			fmt.Sprintf("\x00F%d\x00", i),
			fmt.Sprintf("<pre><code>%s</code></pre>", escapeHTML(code)), 1)
	}
	for i, code := range inlines {
		text = strings.Replace(text,
			fmt.Sprintf("\x00I%d\x00", i),
			fmt.Sprintf("<code>%s</code>", escapeHTML(code)), 1)
	}

	return text
}

func escapeHTML(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}
