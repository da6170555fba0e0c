// internal/export/markdown.go
package export

import (
	"fmt"
	"io"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/user/nexusterm/internal/types"
)

// Session writes a markdown transcript of the session. HTML fragments
// in model output are normalized to markdown.
func Session(sess *types.Session, w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# %s\n\n_Updated %s_\n", sess.Title, sess.UpdatedAt.Format("2006-01-02 15:04")); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, turn := range sess.Messages {
		if _, err := fmt.Fprintf(w, "\n## %s\n\n", speaker(turn.Role)); err != nil {
			return fmt.Errorf("write speaker: %w", err)
		}

		body := turnBody(turn)
		if _, err := io.WriteString(w, body+"\n"); err != nil {
			return fmt.Errorf("write body: %w", err)
		}

		if len(turn.Sources) > 0 {
			if _, err := io.WriteString(w, "\nSources:\n"); err != nil {
				return fmt.Errorf("write sources: %w", err)
			}
			for _, s := range turn.Sources {
				title := s.Title
				if title == "" {
					title = s.URI
				}
				if _, err := fmt.Fprintf(w, "- [%s](%s)\n", title, s.URI); err != nil {
					return fmt.Errorf("write source: %w", err)
				}
			}
		}
	}
	return nil
}

func speaker(role types.Role) string {
	switch role {
	case types.RoleUser:
		return "You"
	case types.RoleAssistant:
		return "Nexus"
	default:
		return "System"
	}
}

func turnBody(turn *types.ChatTurn) string {
	if turn.Kind == types.KindNotice {
		return strings.Join(turn.Lines, "\n")
	}

	body := turn.Content
	if looksLikeHTML(body) {
		if md, err := htmltomarkdown.ConvertString(body); err == nil {
			body = strings.TrimSpace(md)
		}
	}

	if len(turn.Attachments) > 0 {
		names := make([]string, len(turn.Attachments))
		for i, att := range turn.Attachments {
			names[i] = att.Name
		}
		body += "\n\n_Attachments: " + strings.Join(names, ", ") + "_"
	}
	return body
}

// looksLikeHTML is a cheap check for markup: a closing tag somewhere
// in the body. Plain markdown with stray angle brackets passes through
// untouched.
func looksLikeHTML(s string) bool {
	return strings.Contains(s, "</")
}
