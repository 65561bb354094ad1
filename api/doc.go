// Package api describes the HTTP surface of the two STTSFunctions entry points.
//
// # Transcription (chirp_test)
//
// The raw request body is gzip-compressed audio. Parameters are read from a
// JSON body (when Content-Type is JSON) or from the query string:
//
//	token       shared secret, required
//	project_id  GCP project, defaults to the configured project
//	region      recognizer region, defaults to us-central1
//
// The response is a JSON array alternating transcript and language code:
//
//	["hello", "en-us", "szia", "hu-hu"]
//
// # Synthesis (tts_test)
//
//	token          shared secret, required
//	text           text or SSML, defaults to empty
//	language_code  voice language, defaults to en-US
//
// The response body is OGG/Opus audio with
//
//	Content-Type: audio/ogg
//	Content-Disposition: attachment; filename=response.opus
//
// # Denial
//
// A wrong token yields 200 with an empty array (transcription) or an empty
// body (synthesis). No provider call is made.
package api
