// Package classify maps a raw node cell's type and embedded state to a
// semantic action and its configuration.
package classify

import (
	"log/slog"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/cicerone-chat/cicerone/internal/ingest"
	"github.com/cicerone-chat/cicerone/internal/logging"
	"github.com/cicerone-chat/cicerone/pkg/domain"
)

// Raw node types form a closed set. Anything else is recorded and skipped,
// never fatal.
const (
	TypeStart    = "start"
	TypeResponse = "response"
	TypeBranch   = "branch"
	TypeHandover = "handover"
	TypeMail     = "mail"
	TypeCSV      = "csv"
)

// Branch condition tags select the behavior of a branch/joint cell.
const (
	CondGoTo       = "go_to"
	CondButton     = "button"
	CondLink       = "link"
	CondSubmitForm = "submit_form"
	CondIn         = "in"
	CondOut        = "out"
	CondAll        = "all"
)

// Classified is the descriptor the tree builder materializes nodes from.
type Classified struct {
	Label string
	Name  string

	Responses []domain.Response
	Branches  []domain.Branch

	Action domain.Action
	Config domain.ActionConfig

	// Embedded lists child cell ids nested inside this node, as opposed to
	// children reached only via a link.
	Embedded []string

	// Start is set for the start cell, which is never materialized itself;
	// First names its single entry node.
	Start bool
	First string
}

// IsPassThrough reports whether the cell carries nothing worth materializing.
// The walk continues through such cells to their successors.
func (c *Classified) IsPassThrough() bool {
	return !c.Start && c.Label == "" && c.Name == "" &&
		len(c.Responses) == 0 && len(c.Branches) == 0 &&
		c.Action == domain.ActionNone && c.Config.IsZero()
}

// Classifier turns raw cells into classified descriptors.
type Classifier struct {
	handoverKeyword string
	logger          *slog.Logger
}

// Option configures the Classifier.
type Option func(*Classifier)

// WithHandoverKeyword overrides the button text fragment that triggers a
// hand-off.
func WithHandoverKeyword(kw string) Option {
	return func(c *Classifier) {
		if kw != "" {
			c.handoverKeyword = kw
		}
	}
}

// WithLogger sets the classifier's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// New creates a Classifier.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		handoverKeyword: domain.DefaultHandoverKeyword,
		logger:          logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// state shapes decoded from the free-form cell state. Unknown keys are ignored.

type startState struct {
	First string `mapstructure:"first"`
}

type blockState struct {
	Kind    string   `mapstructure:"kind"`
	Content string   `mapstructure:"content"`
	Fields  []string `mapstructure:"fields"`
}

type branchEntryState struct {
	Kind  string `mapstructure:"kind"`
	Label string `mapstructure:"label"`
	URL   string `mapstructure:"url"`
	To    string `mapstructure:"to"`
}

type responseState struct {
	Label    string             `mapstructure:"label"`
	Name     string             `mapstructure:"name"`
	FormID   string             `mapstructure:"form_id"`
	Blocks   []blockState       `mapstructure:"blocks"`
	Branches []branchEntryState `mapstructure:"branches"`
	Children []string           `mapstructure:"children"`
}

type branchState struct {
	Label     string   `mapstructure:"label"`
	Name      string   `mapstructure:"name"`
	Condition string   `mapstructure:"condition"`
	To        string   `mapstructure:"to"`
	URL       string   `mapstructure:"url"`
	Text      string   `mapstructure:"text"`
	Children  []string `mapstructure:"children"`
}

type handoverState struct {
	Label    string   `mapstructure:"label"`
	Name     string   `mapstructure:"name"`
	OnAccept string   `mapstructure:"on_accept"`
	OnReject string   `mapstructure:"on_reject"`
	Children []string `mapstructure:"children"`
}

type mailState struct {
	Label    string   `mapstructure:"label"`
	Name     string   `mapstructure:"name"`
	To       []string `mapstructure:"to"`
	CC       []string `mapstructure:"cc"`
	Subject  string   `mapstructure:"subject"`
	Body     string   `mapstructure:"body"`
	Next     string   `mapstructure:"next"`
	Children []string `mapstructure:"children"`
}

type csvColumnState struct {
	Label   string `mapstructure:"label"`
	Type    string `mapstructure:"type"`
	Default string `mapstructure:"default"`
}

type csvState struct {
	Label    string           `mapstructure:"label"`
	Name     string           `mapstructure:"name"`
	File     string           `mapstructure:"file"`
	Columns  []csvColumnState `mapstructure:"columns"`
	Next     string           `mapstructure:"next"`
	Children []string         `mapstructure:"children"`
}

// Classify maps one raw cell to a descriptor. It never fails: a state shape
// that cannot be decoded degrades to "no action" with an issue, so sibling
// nodes keep compiling.
func (c *Classifier) Classify(cell ingest.NodeCell) (*Classified, []domain.Issue) {
	switch cell.Type {
	case TypeStart:
		return c.classifyStart(cell)
	case TypeResponse:
		return c.classifyResponse(cell)
	case TypeBranch:
		return c.classifyBranch(cell)
	case TypeHandover:
		return c.classifyHandover(cell)
	case TypeMail:
		return c.classifyMail(cell)
	case TypeCSV:
		return c.classifyCSV(cell)
	default:
		c.logger.Warn("unrecognized node type", "cell", cell.ID, "type", cell.Type)
		return &Classified{}, []domain.Issue{{
			Code:    domain.IssueUnknownNodeType,
			Node:    domain.NoNode,
			Ref:     cell.ID,
			Message: "unrecognized node type " + cell.Type,
		}}
	}
}

func (c *Classifier) classifyStart(cell ingest.NodeCell) (*Classified, []domain.Issue) {
	var st startState
	if issue := decode(cell, &st); issue != nil {
		return &Classified{Start: true}, []domain.Issue{*issue}
	}
	return &Classified{Start: true, First: st.First}, nil
}

func (c *Classifier) classifyResponse(cell ingest.NodeCell) (*Classified, []domain.Issue) {
	var st responseState
	if issue := decode(cell, &st); issue != nil {
		return &Classified{}, []domain.Issue{*issue}
	}

	out := &Classified{
		Label:    st.Label,
		Name:     st.Name,
		Embedded: st.Children,
	}
	var formFields []string
	for _, b := range st.Blocks {
		switch b.Kind {
		case string(domain.ResponseImage):
			out.Responses = append(out.Responses, domain.Response{Kind: domain.ResponseImage, Content: b.Content})
		case string(domain.ResponseForm):
			out.Responses = append(out.Responses, domain.Response{Kind: domain.ResponseForm, Fields: b.Fields})
			formFields = append(formFields, b.Fields...)
		default:
			out.Responses = append(out.Responses, domain.Response{Kind: domain.ResponseText, Content: b.Content})
		}
	}
	if formFields != nil {
		out.Action = domain.ActionForm
		out.Config.Form = &domain.FormConfig{ID: st.FormID, Fields: formFields}
	}
	out.Branches = c.mapBranches(st.Branches)
	return out, nil
}

func (c *Classifier) classifyBranch(cell ingest.NodeCell) (*Classified, []domain.Issue) {
	var st branchState
	if issue := decode(cell, &st); issue != nil {
		return &Classified{}, []domain.Issue{*issue}
	}

	out := &Classified{
		Label:    st.Label,
		Name:     st.Name,
		Embedded: st.Children,
	}
	if out.Label == "" {
		out.Label = st.Text
	}

	switch st.Condition {
	case CondGoTo:
		if st.To == domain.RestartTargetName {
			out.Action = domain.ActionRestart
		} else if st.To != "" {
			out.Action = domain.ActionJump
			out.Config.Jump = &domain.JumpConfig{Target: domain.PendingRef(st.To)}
		}
	case CondButton:
		// A button whose text carries the hand-off keyword escalates to a
		// human; continuations stay with the node's ordinary children.
		if c.matchesHandover(st.Text) || c.matchesHandover(st.Label) {
			out.Action = domain.ActionHandover
		}
	case CondLink:
		out.Action = domain.ActionLink
		out.Config.Link = &domain.LinkConfig{URL: st.URL}
	case CondSubmitForm:
		out.Config.PostSubmit = true
	case CondIn:
		out.Config.Flow = domain.FlowIn
	case CondOut:
		out.Config.Flow = domain.FlowOut
	case CondAll:
		out.Config.Flow = domain.FlowAll
	}
	return out, nil
}

func (c *Classifier) classifyHandover(cell ingest.NodeCell) (*Classified, []domain.Issue) {
	var st handoverState
	if issue := decode(cell, &st); issue != nil {
		return &Classified{}, []domain.Issue{*issue}
	}
	return &Classified{
		Label:    st.Label,
		Name:     st.Name,
		Embedded: st.Children,
		Action:   domain.ActionHandover,
		Config: domain.ActionConfig{Handover: &domain.HandoverConfig{
			OnAccept: domain.PendingRef(st.OnAccept),
			OnReject: domain.PendingRef(st.OnReject),
		}},
	}, nil
}

func (c *Classifier) classifyMail(cell ingest.NodeCell) (*Classified, []domain.Issue) {
	var st mailState
	if issue := decode(cell, &st); issue != nil {
		return &Classified{}, []domain.Issue{*issue}
	}
	return &Classified{
		Label:    st.Label,
		Name:     st.Name,
		Embedded: st.Children,
		Action:   domain.ActionMail,
		Config: domain.ActionConfig{Mail: &domain.MailConfig{
			To:      st.To,
			CC:      st.CC,
			Subject: st.Subject,
			Body:    st.Body,
			Next:    domain.PendingRef(st.Next),
		}},
	}, nil
}

func (c *Classifier) classifyCSV(cell ingest.NodeCell) (*Classified, []domain.Issue) {
	var st csvState
	if issue := decode(cell, &st); issue != nil {
		return &Classified{}, []domain.Issue{*issue}
	}
	cols := make([]domain.CSVColumn, 0, len(st.Columns))
	for _, col := range st.Columns {
		cols = append(cols, domain.CSVColumn{Label: col.Label, Type: col.Type, Default: col.Default})
	}
	return &Classified{
		Label:    st.Label,
		Name:     st.Name,
		Embedded: st.Children,
		Action:   domain.ActionCSV,
		Config: domain.ActionConfig{CSV: &domain.CSVConfig{
			File:    st.File,
			Columns: cols,
			Next:    domain.PendingRef(st.Next),
		}},
	}, nil
}

func (c *Classifier) mapBranches(entries []branchEntryState) []domain.Branch {
	var out []domain.Branch
	for _, e := range entries {
		b := domain.Branch{Label: e.Label}
		switch e.Kind {
		case string(domain.BranchLink):
			b.Kind = domain.BranchLink
			b.URL = e.URL
		case string(domain.BranchJump):
			b.Kind = domain.BranchJump
			b.Target = domain.PendingRef(e.To)
		default:
			b.Kind = domain.BranchButton
		}
		out = append(out, b)
	}
	return out
}

func (c *Classifier) matchesHandover(text string) bool {
	if text == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(c.handoverKeyword))
}

// decode maps the free-form state onto a typed shape. A failure is an issue,
// not an error: the caller keeps the node with no action.
func decode(cell ingest.NodeCell, target any) *domain.Issue {
	if cell.State == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err == nil {
		err = dec.Decode(cell.State)
	}
	if err != nil {
		return &domain.Issue{
			Code:    domain.IssueBadNodeState,
			Node:    domain.NoNode,
			Ref:     cell.ID,
			Message: err.Error(),
		}
	}
	return nil
}
