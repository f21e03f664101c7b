package conversation

// Log is the append-only record of a conversation. It has a single writer, the widget controller.
type Log struct {
	entries []Message
	lastID  uint64
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append stamps the next turn id on msg and stores it. Turn ids keep increasing across resets.
func (l *Log) Append(msg Message) Message {
	l.lastID++
	msg.TurnID = l.lastID
	l.entries = append(l.entries, msg)
	return msg
}

// Reset drops every entry. Calling it on an empty log is a no-op.
func (l *Log) Reset() {
	l.entries = nil
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// LastTurnID returns the id of the most recently appended entry, or zero.
func (l *Log) LastTurnID() uint64 {
	return l.lastID
}

// Snapshot returns a copy of the entries in insertion order.
func (l *Log) Snapshot() []Message {
	out := make([]Message, len(l.entries))
	copy(out, l.entries)
	return out
}

// Since returns the entries whose turn id is greater than turnID.
func (l *Log) Since(turnID uint64) []Message {
	for i, msg := range l.entries {
		if msg.TurnID > turnID {
			out := make([]Message, len(l.entries)-i)
			copy(out, l.entries[i:])
			return out
		}
	}
	return nil
}
