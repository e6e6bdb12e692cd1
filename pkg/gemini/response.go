package gemini

// Wire shapes for the generateContent endpoint.

type Part struct {
	Text string `json:"text,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	SafetySettings    []safetySetting  `json:"safetySettings,omitempty"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type generateResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
}

// Reply is the handler-facing view of one model response. The upstream
// API answers either with a single consolidated text part or with an
// ordered sequence of parts; both shapes must be accepted. Text carries
// the consolidated form, Parts the ordered one.
type Reply struct {
	Text         string
	Parts        []Part
	FinishReason string
	BlockReason  string
}

// Message extracts the reply text with explicit precedence: the direct
// text field when non-empty, otherwise the first non-empty part,
// otherwise the empty string.
func (r *Reply) Message() string {
	if r == nil {
		return ""
	}
	if r.Text != "" {
		return r.Text
	}
	for _, p := range r.Parts {
		if p.Text != "" {
			return p.Text
		}
	}
	return ""
}

func (gr *generateResponse) reply() *Reply {
	r := &Reply{}
	if gr.PromptFeedback != nil {
		r.BlockReason = gr.PromptFeedback.BlockReason
	}
	if len(gr.Candidates) == 0 {
		return r
	}

	cand := gr.Candidates[0]
	r.FinishReason = cand.FinishReason
	r.Parts = cand.Content.Parts
	if len(cand.Content.Parts) == 1 {
		r.Text = cand.Content.Parts[0].Text
	}
	return r
}
