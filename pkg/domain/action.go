package domain

// Action tags the side-effect a node declares. The set is closed: classifier
// and runtime switch over it exhaustively.
type Action string

const (
	// ActionNone marks a plain node with no side-effect.
	ActionNone Action = ""
	// ActionLink opens an external URL.
	ActionLink Action = "link"
	// ActionHandover transfers the session to a human operator.
	ActionHandover Action = "handover"
	// ActionForm presents an inline form and collects the declared fields.
	ActionForm Action = "form"
	// ActionRestart sends the session back to the root options.
	ActionRestart Action = "restart"
	// ActionJump continues at a named node elsewhere in the tree.
	ActionJump Action = "jump"
	// ActionMail fires an outbound mail through the host's notifier.
	ActionMail Action = "mail"
	// ActionCSV appends a row to a CSV export through the host's notifier.
	ActionCSV Action = "csv"
	// ActionDropOff ends the conversation without further options.
	ActionDropOff Action = "drop_off"
)

// FlowFlag records branch continuation semantics (success/failure/unconditional)
// consumed only by the runtime, never a primary action.
type FlowFlag string

const (
	FlowNone FlowFlag = ""
	FlowIn   FlowFlag = "in"
	FlowOut  FlowFlag = "out"
	FlowAll  FlowFlag = "all"
)

// RefState tracks the lifecycle of a symbolic node reference.
type RefState string

const (
	// RefPending means the name has not been through symbol resolution yet.
	RefPending RefState = "pending"
	// RefResolved means ID points at a valid compiled node.
	RefResolved RefState = "resolved"
	// RefUnresolved means the name matched nothing. It is kept, flagged,
	// never silently coerced to a wrong target.
	RefUnresolved RefState = "unresolved"
)

// Ref is a reference to another node, symbolic before resolution and compiled
// after. Jump branches and mail/csv/handover continuations use it.
type Ref struct {
	Name  string   `json:"name,omitempty" mapstructure:"name"`
	ID    NodeID   `json:"id,omitempty" mapstructure:"id"`
	State RefState `json:"state" mapstructure:"state"`
}

// PendingRef builds an unresolved reference to a named node.
func PendingRef(name string) Ref {
	return Ref{Name: name, ID: NoNode, State: RefPending}
}

// LinkConfig configures ActionLink.
type LinkConfig struct {
	URL string `json:"url" mapstructure:"url"`
}

// FormConfig configures ActionForm with the declared field names.
type FormConfig struct {
	ID     string   `json:"id,omitempty" mapstructure:"id"`
	Fields []string `json:"fields,omitempty" mapstructure:"fields"`
}

// JumpConfig configures ActionJump. Target starts symbolic and is replaced by
// a compiled id during symbol resolution.
type JumpConfig struct {
	Target Ref `json:"target" mapstructure:"target"`
}

// HandoverConfig configures ActionHandover with the continuation nodes for the
// operator accepting or rejecting the hand-off.
type HandoverConfig struct {
	OnAccept Ref `json:"on_accept" mapstructure:"on_accept"`
	OnReject Ref `json:"on_reject" mapstructure:"on_reject"`
}

// MailConfig configures ActionMail.
type MailConfig struct {
	To      []string `json:"to" mapstructure:"to"`
	CC      []string `json:"cc,omitempty" mapstructure:"cc"`
	Subject string   `json:"subject" mapstructure:"subject"`
	Body    string   `json:"body" mapstructure:"body"`
	Next    Ref      `json:"next" mapstructure:"next"`
}

// CSVColumn is one (label, type, default) triple of a CSV export.
type CSVColumn struct {
	Label   string `json:"label" mapstructure:"label"`
	Type    string `json:"type" mapstructure:"type"`
	Default string `json:"default,omitempty" mapstructure:"default"`
}

// CSVConfig configures ActionCSV.
type CSVConfig struct {
	File    string      `json:"file" mapstructure:"file"`
	Columns []CSVColumn `json:"columns" mapstructure:"columns"`
	Next    Ref         `json:"next" mapstructure:"next"`
}

// ActionConfig is the variant payload attached to a node's Action. Exactly the
// pointer matching the action tag is set; Flow and PostSubmit ride along for
// any tag.
type ActionConfig struct {
	Link     *LinkConfig     `json:"link,omitempty"`
	Form     *FormConfig     `json:"form,omitempty"`
	Jump     *JumpConfig     `json:"jump,omitempty"`
	Handover *HandoverConfig `json:"handover,omitempty"`
	Mail     *MailConfig     `json:"mail,omitempty"`
	CSV      *CSVConfig      `json:"csv,omitempty"`

	// Flow is a continuation flag for branch nodes, consumed only by the runtime.
	Flow FlowFlag `json:"flow,omitempty"`
	// PostSubmit marks a branch that continues after a form submission.
	PostSubmit bool `json:"post_submit,omitempty"`
}

// IsZero reports whether the config carries no payload at all.
func (c ActionConfig) IsZero() bool {
	return c.Link == nil && c.Form == nil && c.Jump == nil &&
		c.Handover == nil && c.Mail == nil && c.CSV == nil &&
		c.Flow == FlowNone && !c.PostSubmit
}

// Refs returns pointers to every symbolic reference held by the config, so the
// symbol resolver can rewrite them in place.
func (c *ActionConfig) Refs() []*Ref {
	var refs []*Ref
	if c.Jump != nil {
		refs = append(refs, &c.Jump.Target)
	}
	if c.Handover != nil {
		refs = append(refs, &c.Handover.OnAccept, &c.Handover.OnReject)
	}
	if c.Mail != nil {
		refs = append(refs, &c.Mail.Next)
	}
	if c.CSV != nil {
		refs = append(refs, &c.CSV.Next)
	}
	return refs
}
