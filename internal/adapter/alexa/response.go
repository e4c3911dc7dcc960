package alexa

const (
	envelopeVersion = "1.0"

	speechTypePlainText = "PlainText"

	CardTypeSimple            = "Simple"
	CardTypePermissionConsent = "AskForPermissionsConsent"
)

// ResponseEnvelope is the JSON body returned to the voice platform.
type ResponseEnvelope struct {
	Version           string                 `json:"version"`
	SessionAttributes map[string]interface{} `json:"sessionAttributes,omitempty"`
	Response          Response               `json:"response"`
}

type Response struct {
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	Card             *Card         `json:"card,omitempty"`
	Reprompt         *Reprompt     `json:"reprompt,omitempty"`
	ShouldEndSession *bool         `json:"shouldEndSession,omitempty"`
}

type OutputSpeech struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Reprompt struct {
	OutputSpeech OutputSpeech `json:"outputSpeech"`
}

type Card struct {
	Type        string   `json:"type"`
	Title       string   `json:"title,omitempty"`
	Content     string   `json:"content,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// Speech returns the spoken text, or "" when nothing is spoken.
func (r *ResponseEnvelope) Speech() string {
	if r == nil || r.Response.OutputSpeech == nil {
		return ""
	}
	return r.Response.OutputSpeech.Text
}

// ResponseBuilder assembles a ResponseEnvelope. The zero value is not
// usable; call NewResponseBuilder.
type ResponseBuilder struct {
	env ResponseEnvelope
}

func NewResponseBuilder() *ResponseBuilder {
	return &ResponseBuilder{env: ResponseEnvelope{Version: envelopeVersion}}
}

// Speak sets the output speech and ends the session unless Ask is called.
func (b *ResponseBuilder) Speak(text string) *ResponseBuilder {
	b.env.Response.OutputSpeech = &OutputSpeech{Type: speechTypePlainText, Text: text}
	if b.env.Response.Reprompt == nil {
		b.setEnd(true)
	}
	return b
}

// Ask sets a reprompt and keeps the session open.
func (b *ResponseBuilder) Ask(reprompt string) *ResponseBuilder {
	b.env.Response.Reprompt = &Reprompt{
		OutputSpeech: OutputSpeech{Type: speechTypePlainText, Text: reprompt},
	}
	b.setEnd(false)
	return b
}

func (b *ResponseBuilder) SimpleCard(title, content string) *ResponseBuilder {
	b.env.Response.Card = &Card{Type: CardTypeSimple, Title: title, Content: content}
	return b
}

// PermissionCard asks the user to grant permissions in the companion app.
func (b *ResponseBuilder) PermissionCard(permissions []string) *ResponseBuilder {
	perms := make([]string, len(permissions))
	copy(perms, permissions)
	b.env.Response.Card = &Card{Type: CardTypePermissionConsent, Permissions: perms}
	return b
}

func (b *ResponseBuilder) Build() *ResponseEnvelope {
	env := b.env
	return &env
}

func (b *ResponseBuilder) setEnd(end bool) {
	b.env.Response.ShouldEndSession = &end
}

// Empty is the reply to SessionEndedRequest: no speech, no card.
func Empty() *ResponseEnvelope {
	return &ResponseEnvelope{Version: envelopeVersion}
}
