package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogProductEvent(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		want interface{}
	}{
		{name: "json body is embedded", body: []byte(`{"event":"product.created"}`), want: map[string]interface{}{"event": "product.created"}},
		{name: "plain body is quoted", body: []byte(`not "json" at all`), want: `not "json" at all`},
		{name: "empty body", body: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logProductEvent(zerolog.New(&buf), amqp.Delivery{DeliveryTag: 7, RoutingKey: "product.created", Body: tt.body})

			var line map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line), buf.String())
			assert.Equal(t, tt.want, line["body"])
			assert.Equal(t, "product.created", line["routing_key"])
		})
	}
}
