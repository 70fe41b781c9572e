// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package events

import "time"

// WriterBatchTimeout exposes the configured writer batch timeout.
func WriterBatchTimeout(publisher *KafkaPublisher) time.Duration {
	return publisher.writer.BatchTimeout
}
