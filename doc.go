// Package chatkit is a thin client for OpenAI-style chat-completion APIs.
//
// It builds request bodies, parses responses, and drives the tool-calling
// loop: the model is called repeatedly, declared tools are executed locally
// in the order the server requested them, and their results are fed back
// until the model produces a final text answer.
//
// Three entry points cover the common cases:
//
//   - Client.GenerateText runs the conversation loop with optional tools.
//   - GenerateObject forces the model into a single submit_object tool call
//     and returns its validated JSON payload as a typed value.
//   - Client.Stream decodes a server-sent-event response incrementally and
//     invokes a callback per content delta.
//
// Tools are declared with NewTool (typed arguments, schema reflected from
// the Go struct) or NewRawTool (caller-supplied JSON Schema). All failures
// are fatal and propagate to the caller; chatkit never retries.
package chatkit
