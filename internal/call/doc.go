// Package call places outbound voice calls that read a text message aloud.
//
// Service is the server side: it validates a Request, renders a TwiML
// <Say> document and hands it to a Dialer. TwilioDialer implements Dialer
// with the Twilio REST API. Client is the caller side of the
// POST /api/makeCall endpoint.
//
// Errors are typed: *ValidationError for empty fields, *ProviderError for
// telephony failures and *ServerError for non-200 endpoint answers. The
// provider and server messages are passed through unmodified.
package call
