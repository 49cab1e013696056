package md2html

// Message kinds sent from the host to the execution unit.
const (
	kindProcess = "process"
	kindPing    = "ping"
)

// Outcomes sent from the execution unit to the host.
const (
	outcomeReady  = "ready"
	outcomeResult = "result"
	outcomeError  = "error"
	outcomePong   = "pong"
)

// request is a host-to-unit message. ID is the correlation id linking a
// process request to its eventual response; pings carry no id.
type request struct {
	ID       string
	Kind     string
	Markdown string
}

// response is a unit-to-host message. ID echoes the originating
// request's id for result/error outcomes; it is empty for the
// unsolicited ready and pong outcomes and for unit-level faults.
type response struct {
	ID        string
	Outcome   string
	HTML      string
	Err       string
	ElapsedMs int64
}
