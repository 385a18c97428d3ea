package logging

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Syslog severity levels.
const (
	SyslogError   = 3
	SyslogWarning = 4
	SyslogInfo    = 6
	SyslogDebug   = 7
)

const (
	syslogFacility = 16 // local0
	syslogApp      = "blockedit"
	// editSDID is the structured-data ID carrying edit event fields.
	editSDID = "edit@32473"
)

// SyslogClient sends RFC 5424 messages over UDP. Log records go out with
// MSGID "log"; edit events go out with MSGID set to the operation and the
// event fields as structured data.
type SyslogClient struct {
	conn        net.Conn
	hostname    string
	MinSeverity int  // 0 = no filter, else a Syslog* severity
	Events      bool // also forward edit events via HandleEvent
}

// NewSyslogClient dials host:port (default port 514).
func NewSyslogClient(host string, port int) (*SyslogClient, error) {
	if port == 0 {
		port = 514
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial syslog %s: %w", addr, err)
	}
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "-"
	}
	return &SyslogClient{conn: conn, hostname: hostname}, nil
}

// Send sends a plain log message.
func (s *SyslogClient) Send(severity int, msg string) error {
	return s.write(severity, time.Now(), "log", "-", msg)
}

// SendEvent sends an edit event. The outcome sets the severity: errors are
// SyslogError, refusals and validation warnings SyslogWarning, the rest
// SyslogInfo.
func (s *SyslogClient) SendEvent(ev EditEvent) error {
	sev := EventSeverity(ev)
	if !s.ShouldSend(sev) {
		return nil
	}
	msgid := ev.Op
	if msgid == "" {
		msgid = "-"
	}
	return s.write(sev, ev.Time, msgid, eventSD(ev), ev.String())
}

// HandleEvent is an EventCallback forwarding edit events when Events is set.
func (s *SyslogClient) HandleEvent(ev EditEvent) {
	if s.Events {
		s.SendEvent(ev)
	}
}

func (s *SyslogClient) write(severity int, ts time.Time, msgid, sd, msg string) error {
	if ts.IsZero() {
		ts = time.Now()
	}
	line := fmt.Sprintf("<%d>1 %s %s %s %d %s %s %s",
		syslogFacility*8+severity, ts.Format(time.RFC3339Nano), s.hostname,
		syslogApp, os.Getpid(), msgid, sd, msg)
	_, err := s.conn.Write([]byte(line))
	return err
}

// EventSeverity maps an edit event's outcome to a syslog severity.
func EventSeverity(ev EditEvent) int {
	switch ev.Outcome {
	case OutcomeError:
		return SyslogError
	case OutcomeRefused, OutcomeWarning:
		return SyslogWarning
	default:
		return SyslogInfo
	}
}

// eventSD renders the structured-data element for ev. Empty fields are left
// out.
func eventSD(ev EditEvent) string {
	var b strings.Builder
	b.WriteString("[" + editSDID)
	param := func(name, v string) {
		if v != "" {
			fmt.Fprintf(&b, " %s=\"%s\"", name, sdEscape(v))
		}
	}
	param("seq", strconv.FormatUint(ev.Seq, 10))
	param("op", ev.Op)
	param("element", ev.Element)
	param("symbol", ev.Symbol)
	param("outcome", ev.Outcome)
	b.WriteString("]")
	return b.String()
}

var sdReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `]`, `\]`)

func sdEscape(v string) string { return sdReplacer.Replace(v) }

// ShouldSend returns true if the severity passes this client's filter.
// Lower severity number = higher priority (error=3 < warning=4 < info=6).
func (s *SyslogClient) ShouldSend(severity int) bool {
	return s.MinSeverity == 0 || severity <= s.MinSeverity
}

// ParseSeverity converts a severity name to its numeric value.
// Returns 0 (no filter) for unrecognized names.
func ParseSeverity(name string) int {
	switch name {
	case "error":
		return SyslogError
	case "warning", "warn":
		return SyslogWarning
	case "info":
		return SyslogInfo
	case "debug":
		return SyslogDebug
	default:
		return 0
	}
}

// Close closes the underlying connection.
func (s *SyslogClient) Close() error {
	return s.conn.Close()
}
