// Package tui renders chat-preview output for the CLI.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/cicerone-chat/cicerone/internal/runtime"
	"github.com/cicerone-chat/cicerone/pkg/domain"
)

// Renderer formats runtime replies for a terminal chat preview.
type Renderer struct {
	markdown *glamour.TermRenderer
	profile  termenv.Profile
}

// NewRenderer creates a renderer that auto-detects the terminal's style.
func NewRenderer() *Renderer {
	md, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	return &Renderer{
		markdown: md,
		profile:  termenv.ColorProfile(),
	}
}

// Reply renders one traversal reply: the message body, any action notice, and
// the numbered option list.
func (r *Renderer) Reply(reply *runtime.Reply) string {
	var b strings.Builder

	for _, msg := range reply.Messages {
		switch msg.Kind {
		case domain.ResponseImage:
			b.WriteString(r.dim("[image] "+msg.Content) + "\n")
		case domain.ResponseForm:
			b.WriteString(r.dim("[form] fields: "+strings.Join(msg.Fields, ", ")) + "\n")
		default:
			b.WriteString(r.Markdown(msg.Content))
		}
	}

	if notice := r.actionNotice(reply); notice != "" {
		b.WriteString(notice + "\n")
	}

	for i, opt := range reply.Options {
		b.WriteString(fmt.Sprintf("  %s %s\n", r.accent(fmt.Sprintf("%d)", i+1)), opt.Label))
	}
	return b.String()
}

// Markdown renders body text through glamour, falling back to the raw text
// when rendering fails.
func (r *Renderer) Markdown(text string) string {
	if r.markdown == nil {
		return text + "\n"
	}
	out, err := r.markdown.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

func (r *Renderer) actionNotice(reply *runtime.Reply) string {
	switch reply.Action {
	case domain.ActionHandover:
		return r.accent("-- handing you over to a human operator --")
	case domain.ActionLink:
		if reply.Config.Link != nil {
			return r.dim("open: " + reply.Config.Link.URL)
		}
	case domain.ActionMail:
		return r.dim("(mail notification fires here)")
	case domain.ActionCSV:
		return r.dim("(csv export fires here)")
	case domain.ActionDropOff:
		return r.dim("-- end of conversation --")
	}
	return ""
}

func (r *Renderer) accent(s string) string {
	return termenv.String(s).Foreground(r.profile.Color("6")).Bold().String()
}

func (r *Renderer) dim(s string) string {
	return termenv.String(s).Faint().String()
}
