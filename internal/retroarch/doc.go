// Package retroarch speaks the RetroArch network command interface over UDP.
//
// All commands except the status query are fire-and-forget single-line text
// messages. The status reply grammar has changed between RetroArch versions,
// so parsing is deliberately tolerant: unknown shapes degrade to "no content"
// rather than errors.
package retroarch
