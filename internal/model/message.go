package model

import "time"

// Message is one text message as reported by the device.
type Message struct {
	Sender     string
	Body       string
	ReceivedAt time.Time

	// RawReceivedAt is the timestamp exactly as the source printed it.
	RawReceivedAt string
}

type NotificationResult struct {
	Recipient string
	Success   bool
	Detail    string
}

// CycleReport summarises one fetch-classify-dispatch-persist pass.
type CycleReport struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	Fetched   int `json:"fetched"`
	Invalid   int `json:"invalid"`
	Skipped   int `json:"skipped"`
	Matched   int `json:"matched"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`

	WatermarkBefore *time.Time `json:"watermarkBefore,omitempty"`
	WatermarkAfter  *time.Time `json:"watermarkAfter,omitempty"`

	Error string `json:"error,omitempty"`
}
