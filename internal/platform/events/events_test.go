// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package events_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/plume/internal/platform/events"
)

func TestNew_SelectsPublisher(t *testing.T) {
	assert.IsType(t, events.Noop{}, events.New(nil, "plume.lifecycle"))

	publisher := events.New([]string{"localhost:9092"}, "plume.lifecycle")
	assert.IsType(t, &events.KafkaPublisher{}, publisher)
	assert.Equal(t, events.BatchTimeout, events.WriterBatchTimeout(publisher.(*events.KafkaPublisher)))
	assert.NoError(t, publisher.Close())
}

func TestRecorder(t *testing.T) {
	recorder := &events.Recorder{}
	_ = recorder.Publish(context.Background(), events.Event{Type: "kyc.approved", EntityID: "s-1"})

	recorded := recorder.Events()
	assert.Len(t, recorded, 1)
	assert.Equal(t, "kyc.approved", recorded[0].Type)
}
