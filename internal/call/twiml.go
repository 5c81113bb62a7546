package call

import (
	"fmt"

	"github.com/twilio/twilio-go/twiml"
)

// RenderTwiML builds the document that reads message aloud.
// With escape set the message is XML-escaped; otherwise it is
// interpolated verbatim and may carry its own markup.
func RenderTwiML(message string, escape bool) (string, error) {
	if !escape {
		return "<Response><Say>" + message + "</Say></Response>", nil
	}

	doc, err := twiml.Voice([]twiml.Element{
		&twiml.VoiceSay{Message: message},
	})
	if err != nil {
		return "", fmt.Errorf("failed to render TwiML: %w", err)
	}
	return doc, nil
}
