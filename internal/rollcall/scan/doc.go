// Package scan runs one camera check-in session: acquire a camera, decode
// frames until one classifies as a usable code, resolve it to a person, hold
// the candidate at the confirmation gate, and record attendance once the
// operator accepts.
//
// A Session owns its camera stream for the whole run and releases it exactly
// once, whichever way the run ends. Close is safe from any goroutine and in
// any state. A View owns the camera slot for a host and makes sure the
// previous session has let go of the camera before the next one starts.
package scan
