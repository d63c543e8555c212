package mqttlite

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Topic errors.
var (
	ErrInvalidTopicName   = fmt.Errorf("%w: invalid topic name", ErrInvalidArgument)
	ErrInvalidTopicFilter = fmt.Errorf("%w: invalid topic filter", ErrInvalidArgument)
	ErrEmptyTopic         = fmt.Errorf("%w: topic cannot be empty", ErrInvalidArgument)
)

const (
	topicSeparator      = '/'
	singleLevelWildcard = '+'
	multiLevelWildcard  = '#'

	sharedSubscriptionPrefix = "$share/"
)

// ValidateTopicName checks a topic name used for PUBLISH. Topic names
// cannot contain wildcards and must be valid UTF-8.
func ValidateTopicName(topic string) error {
	if topic == "" {
		return ErrEmptyTopic
	}

	if !utf8.ValidString(topic) {
		return ErrInvalidTopicName
	}

	for _, r := range topic {
		if r == 0 || r == singleLevelWildcard || r == multiLevelWildcard {
			return ErrInvalidTopicName
		}
	}

	return nil
}

// ValidateTopicFilter checks a topic filter used for SUBSCRIBE. A wildcard
// must occupy a whole level and '#' must be the last level.
func ValidateTopicFilter(filter string) error {
	if filter == "" {
		return ErrEmptyTopic
	}

	if !utf8.ValidString(filter) || strings.ContainsRune(filter, 0) {
		return ErrInvalidTopicFilter
	}

	levels := strings.Split(filter, string(topicSeparator))

	for i, level := range levels {
		if strings.ContainsRune(level, singleLevelWildcard) && level != string(singleLevelWildcard) {
			return ErrInvalidTopicFilter
		}

		if strings.ContainsRune(level, multiLevelWildcard) {
			if level != string(multiLevelWildcard) || i != len(levels)-1 {
				return ErrInvalidTopicFilter
			}
		}
	}

	return nil
}

// TopicMatch reports whether topic matches filter. Topics starting with
// '$' are not matched by a wildcard in the first level.
func TopicMatch(filter, topic string) bool {
	if filter == "" || topic == "" {
		return false
	}

	if topic[0] == '$' && (filter[0] == singleLevelWildcard || filter[0] == multiLevelWildcard) {
		return false
	}

	if shared, err := ParseSharedSubscription(filter); err == nil && shared != nil {
		filter = shared.TopicFilter
	}

	return matchTopic(filter, topic)
}

// matchTopic walks filter and topic level by level without allocating.
func matchTopic(filter, topic string) bool {
	fi, ti := 0, 0
	flen, tlen := len(filter), len(topic)

	for fi < flen {
		fstart := fi
		for fi < flen && filter[fi] != topicSeparator {
			fi++
		}
		flevel := filter[fstart:fi]

		// '#' also matches the parent level.
		if flevel == string(multiLevelWildcard) {
			return true
		}

		if ti >= tlen {
			return false
		}

		tstart := ti
		for ti < tlen && topic[ti] != topicSeparator {
			ti++
		}
		tlevel := topic[tstart:ti]

		if flevel != string(singleLevelWildcard) && flevel != tlevel {
			return false
		}

		if fi < flen {
			fi++
		}
		if ti < tlen {
			ti++
		}
	}

	return ti >= tlen
}

// IsSystemTopic reports whether topic is under $SYS.
func IsSystemTopic(topic string) bool {
	return strings.HasPrefix(topic, "$SYS/") || topic == "$SYS"
}

// SharedSubscription is a parsed $share/{ShareName}/{TopicFilter} filter.
type SharedSubscription struct {
	ShareName   string
	TopicFilter string
}

// ParseSharedSubscription parses a shared subscription filter. It returns
// nil without error when filter is not a shared subscription.
func ParseSharedSubscription(filter string) (*SharedSubscription, error) {
	if !isSharedSubscription(filter) {
		return nil, nil
	}

	rest := filter[len(sharedSubscriptionPrefix):]
	idx := strings.IndexByte(rest, topicSeparator)
	if idx <= 0 || idx == len(rest)-1 {
		return nil, ErrInvalidTopicFilter
	}

	shareName := rest[:idx]
	if strings.ContainsAny(shareName, "+#") {
		return nil, ErrInvalidTopicFilter
	}

	topicFilter := rest[idx+1:]
	if err := ValidateTopicFilter(topicFilter); err != nil {
		return nil, err
	}

	return &SharedSubscription{
		ShareName:   shareName,
		TopicFilter: topicFilter,
	}, nil
}

func isSharedSubscription(filter string) bool {
	return strings.HasPrefix(filter, sharedSubscriptionPrefix)
}
