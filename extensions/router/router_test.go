package router

import (
	"regexp"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/mqttlite"
)

func msg(topic string) *mqttlite.PublishParam {
	return &mqttlite.PublishParam{Topic: []byte(topic)}
}

func TestRouterHandle(t *testing.T) {
	r := New()

	var called bool
	r.Handle(func(_ *mqttlite.Client, _ *mqttlite.PublishParam) {
		called = true
	}, WithTopic("test/topic"))

	assert.Equal(t, 1, r.Len())

	assert.True(t, r.Route(nil, msg("test/topic")))
	assert.True(t, called)
}

func TestRouterTopicFilters(t *testing.T) {
	tests := []struct {
		name    string
		filter  string
		matches []string
		misses  []string
	}{
		{
			name:    "exact",
			filter:  "sensors/temperature",
			matches: []string{"sensors/temperature"},
			misses:  []string{"sensors/humidity", "sensors/temperature/x"},
		},
		{
			name:    "single level wildcard",
			filter:  "sensors/+/value",
			matches: []string{"sensors/temp/value", "sensors/humidity/value"},
			misses:  []string{"sensors/temp/other", "sensors/value"},
		},
		{
			name:    "multi level wildcard",
			filter:  "sensors/#",
			matches: []string{"sensors", "sensors/temp", "sensors/a/b/c/d"},
			misses:  []string{"other/topic"},
		},
		{
			name:    "shared subscription",
			filter:  "$share/group/sensors/+",
			matches: []string{"sensors/temp"},
			misses:  []string{"sensors/temp/value"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()

			var topics []string
			r.Handle(func(_ *mqttlite.Client, m *mqttlite.PublishParam) {
				topics = append(topics, string(m.Topic))
			}, WithTopic(tt.filter))

			for _, topic := range tt.matches {
				assert.True(t, r.Route(nil, msg(topic)), topic)
			}
			for _, topic := range tt.misses {
				assert.False(t, r.Route(nil, msg(topic)), topic)
			}

			assert.Equal(t, tt.matches, topics)
		})
	}
}

func TestRouterMultipleHandlers(t *testing.T) {
	r := New()

	var count int32
	for _, filter := range []string{"topic/+", "topic/test", "#"} {
		r.Handle(func(_ *mqttlite.Client, _ *mqttlite.PublishParam) {
			atomic.AddInt32(&count, 1)
		}, WithTopic(filter))
	}

	r.Route(nil, msg("topic/test"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&count))
}

func TestRouterFilters(t *testing.T) {
	r := New()

	noop := func(_ *mqttlite.Client, _ *mqttlite.PublishParam) {}
	r.Handle(noop, WithTopic("topic/a"))
	r.Handle(noop, WithTopic("topic/b"))
	r.Handle(noop, WithTopic("topic/a"))
	r.Handle(noop)

	assert.Equal(t, []string{"topic/a", "topic/b"}, r.Filters())
	assert.Equal(t, 4, r.Len())

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Filters())
}

func TestRouterNilMessage(t *testing.T) {
	r := New()

	var called bool
	r.Handle(func(_ *mqttlite.Client, _ *mqttlite.PublishParam) {
		called = true
	}, WithTopic("#"))

	assert.False(t, r.Route(nil, nil))
	assert.False(t, called)
}

func TestRouterConditions(t *testing.T) {
	json := regexp.MustCompile(`^application/json$`)

	tests := []struct {
		name  string
		opts  []ConditionOption
		msg   *mqttlite.PublishParam
		match bool
	}{
		{
			name:  "qos match",
			opts:  []ConditionOption{WithQoS(mqttlite.QoS1)},
			msg:   &mqttlite.PublishParam{Topic: []byte("a"), QoS: mqttlite.QoS1},
			match: true,
		},
		{
			name: "qos mismatch",
			opts: []ConditionOption{WithQoS(mqttlite.QoS2)},
			msg:  &mqttlite.PublishParam{Topic: []byte("a"), QoS: mqttlite.QoS1},
		},
		{
			name:  "retain",
			opts:  []ConditionOption{WithRetain(true)},
			msg:   &mqttlite.PublishParam{Topic: []byte("a"), Retain: true},
			match: true,
		},
		{
			name: "not retained",
			opts: []ConditionOption{WithRetain(true)},
			msg:  &mqttlite.PublishParam{Topic: []byte("a")},
		},
		{
			name: "content type",
			opts: []ConditionOption{WithContentType(json)},
			msg: &mqttlite.PublishParam{
				Topic:      []byte("a"),
				Properties: mqttlite.PublishProperties{ContentType: []byte("application/json")},
			},
			match: true,
		},
		{
			name: "content type mismatch",
			opts: []ConditionOption{WithContentType(json)},
			msg: &mqttlite.PublishParam{
				Topic:      []byte("a"),
				Properties: mqttlite.PublishProperties{ContentType: []byte("text/plain")},
			},
		},
		{
			name: "response topic",
			opts: []ConditionOption{WithResponseTopic(regexp.MustCompile(`^reply/`))},
			msg: &mqttlite.PublishParam{
				Topic:      []byte("a"),
				Properties: mqttlite.PublishProperties{ResponseTopic: []byte("reply/1")},
			},
			match: true,
		},
		{
			name: "user property",
			opts: []ConditionOption{
				WithUserProperty(regexp.MustCompile(`^region$`), regexp.MustCompile(`^eu-`)),
			},
			msg: &mqttlite.PublishParam{
				Topic: []byte("a"),
				Properties: mqttlite.PublishProperties{UserProperties: []mqttlite.UserProperty{
					{Name: []byte("region"), Value: []byte("eu-west")},
				}},
			},
			match: true,
		},
		{
			name: "user property missing",
			opts: []ConditionOption{
				WithUserProperty(regexp.MustCompile(`^region$`), regexp.MustCompile(`^eu-`)),
				WithUserProperty(regexp.MustCompile(`^tier$`), regexp.MustCompile(`.*`)),
			},
			msg: &mqttlite.PublishParam{
				Topic: []byte("a"),
				Properties: mqttlite.PublishProperties{UserProperties: []mqttlite.UserProperty{
					{Name: []byte("region"), Value: []byte("eu-west")},
				}},
			},
		},
		{
			name: "all conditions",
			opts: []ConditionOption{WithTopic("data/#"), WithQoS(mqttlite.QoS1), WithContentType(json)},
			msg: &mqttlite.PublishParam{
				Topic:      []byte("data/sensor"),
				QoS:        mqttlite.QoS1,
				Properties: mqttlite.PublishProperties{ContentType: []byte("application/json")},
			},
			match: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()

			var called bool
			r.Handle(func(_ *mqttlite.Client, _ *mqttlite.PublishParam) {
				called = true
			}, tt.opts...)

			assert.Equal(t, tt.match, r.Route(nil, tt.msg))
			assert.Equal(t, tt.match, called)
		})
	}
}

func TestRouterEventHandler(t *testing.T) {
	r := New()

	var routed []string
	r.Handle(func(_ *mqttlite.Client, m *mqttlite.PublishParam) {
		routed = append(routed, string(m.Topic))
	}, WithTopic("sensors/#"))

	var fallback []mqttlite.EventType
	handler := r.EventHandler(func(_ *mqttlite.Client, evt *mqttlite.Event) {
		fallback = append(fallback, evt.Type)
	})

	handler(nil, &mqttlite.Event{Type: mqttlite.EventPublish, Param: msg("sensors/temp")})
	handler(nil, &mqttlite.Event{Type: mqttlite.EventPublish, Param: msg("other")})
	handler(nil, &mqttlite.Event{Type: mqttlite.EventPingresp})

	require.Equal(t, []string{"sensors/temp"}, routed)
	assert.Equal(t, []mqttlite.EventType{mqttlite.EventPublish, mqttlite.EventPingresp}, fallback)

	assert.NotPanics(t, func() {
		r.EventHandler(nil)(nil, &mqttlite.Event{Type: mqttlite.EventSuback})
	})
}

func BenchmarkRouterRoute(b *testing.B) {
	r := New()
	for _, filter := range []string{"a/+/c", "a/b/#", "x/y/z", "+/+/+"} {
		r.Handle(func(_ *mqttlite.Client, _ *mqttlite.PublishParam) {}, WithTopic(filter))
	}
	m := msg("a/b/c")

	b.ReportAllocs()
	for b.Loop() {
		r.Route(nil, m)
	}
}
