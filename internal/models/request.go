package models

// QueryRequest for POST /api/v1/query (direct SQL)
type QueryRequest struct {
	SQL     string `json:"sql"`
	Profile string `json:"profile,omitempty"` // shaping profile applied to the result
	Mask    *bool  `json:"mask,omitempty"`
}

// AskRequest for POST /api/v1/ask and /ui/ask
type AskRequest struct {
	Question string  `json:"question"`
	Profile  *string `json:"profile,omitempty"` // overrides keyword routing
	DryRun   bool    `json:"dry_run"`          // translate and sanitize only
	Timeout  int     `json:"timeout"`          // seconds
}

func (r *AskRequest) SetDefaults() {
	if r.Timeout == 0 {
		r.Timeout = 120
	}
	if r.Timeout < 10 {
		r.Timeout = 10
	}
	if r.Timeout > 600 {
		r.Timeout = 600
	}
}

// EmailRequest for POST /api/v1/ask/email
type EmailRequest struct {
	AskRequest
	Subject string `json:"subject,omitempty"`
}

// AgentRequest for POST /api/v1/agent
type AgentRequest struct {
	Prompt  string `json:"prompt"`
	Timeout int    `json:"timeout"`
}

func (r *AgentRequest) SetDefaults() {
	if r.Timeout == 0 {
		r.Timeout = 300
	}
	if r.Timeout < 10 {
		r.Timeout = 10
	}
	if r.Timeout > 600 {
		r.Timeout = 600
	}
}
