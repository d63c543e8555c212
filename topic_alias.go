package mqttlite

import "fmt"

// Topic alias errors.
var (
	ErrTopicAliasInvalid  = fmt.Errorf("%w: topic alias invalid", ErrMalformedPacket)
	ErrTopicAliasNotFound = fmt.Errorf("%w: topic alias not found", ErrMalformedPacket)
	ErrTopicAliasTooLong  = fmt.Errorf("%w: topic too long for alias entry", ErrBufferOverflow)
)

// Topic alias defaults.
const (
	DefaultTopicAliasMaximum   = 5
	DefaultTopicAliasMaxLength = 64
)

type topicAliasEntry struct {
	topic []byte
	n     int
}

// topicAliasTable maps inbound topic aliases to the topic last registered
// for them. Entry i holds alias i+1. Storage is allocated once; registering
// an alias again overwrites the entry.
type topicAliasTable struct {
	entries []topicAliasEntry
}

func newTopicAliasTable(maximum uint16, maxTopicLen int) *topicAliasTable {
	t := &topicAliasTable{
		entries: make([]topicAliasEntry, maximum),
	}
	for i := range t.entries {
		t.entries[i].topic = make([]byte, maxTopicLen)
	}
	return t
}

// maximum returns the highest alias the table accepts.
func (t *topicAliasTable) maximum() uint16 {
	return uint16(len(t.entries))
}

func (t *topicAliasTable) entry(alias uint16) (*topicAliasEntry, error) {
	if alias == 0 || int(alias) > len(t.entries) {
		return nil, ErrTopicAliasInvalid
	}
	return &t.entries[alias-1], nil
}

// set copies topic into the entry for alias.
func (t *topicAliasTable) set(alias uint16, topic []byte) error {
	e, err := t.entry(alias)
	if err != nil {
		return err
	}
	if len(topic) > len(e.topic) {
		return ErrTopicAliasTooLong
	}
	e.n = copy(e.topic, topic)
	return nil
}

// get returns the topic registered for alias. The slice stays valid until
// the alias is overwritten or the table is reset.
func (t *topicAliasTable) get(alias uint16) ([]byte, error) {
	e, err := t.entry(alias)
	if err != nil {
		return nil, err
	}
	if e.n == 0 {
		return nil, ErrTopicAliasNotFound
	}
	return e.topic[:e.n:e.n], nil
}

// reset forgets every alias. Aliases do not outlive a network connection.
func (t *topicAliasTable) reset() {
	for i := range t.entries {
		t.entries[i].n = 0
	}
}
