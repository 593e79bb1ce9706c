package store

import (
	"time"

	"github.com/mredag/MPARB/internal/model/event"
)

type messageRow struct {
	CorrelationID  string    `gorm:"primaryKey;size:191"`
	Platform       string    `gorm:"size:64;not null;index"`
	SenderID       string    `gorm:"size:191"`
	Text           string    `gorm:"type:text"`
	ReceivedAt     time.Time `gorm:"not null"`
	SessionMode    string    `gorm:"size:32"`
	Sentiment      string    `gorm:"size:32"`
	Intent         string    `gorm:"size:191"`
	ReplyText      string    `gorm:"type:text"`
	Outcome        string    `gorm:"size:32;index"`
	ResponseTimeMS *int64
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (messageRow) TableName() string {
	return "messages"
}

func (r messageRow) toEvent() event.Event {
	return event.Event{
		CorrelationID:  r.CorrelationID,
		Platform:       event.Platform(r.Platform),
		SenderID:       r.SenderID,
		Text:           r.Text,
		ReceivedAt:     r.ReceivedAt,
		SessionMode:    event.SessionMode(r.SessionMode),
		Sentiment:      event.Sentiment(r.Sentiment),
		Intent:         r.Intent,
		ReplyText:      r.ReplyText,
		Outcome:        event.Outcome(r.Outcome),
		ResponseTimeMS: r.ResponseTimeMS,
	}
}

func messageRowFromEvent(ev event.Event, now time.Time) messageRow {
	return messageRow{
		CorrelationID:  ev.CorrelationID,
		Platform:       string(ev.Platform),
		SenderID:       ev.SenderID,
		Text:           ev.Text,
		ReceivedAt:     ev.ReceivedAt,
		SessionMode:    string(ev.SessionMode),
		Sentiment:      string(ev.Sentiment),
		Intent:         ev.Intent,
		ReplyText:      ev.ReplyText,
		Outcome:        string(ev.Outcome),
		ResponseTimeMS: ev.ResponseTimeMS,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

type reviewRow struct {
	CorrelationID  string    `gorm:"primaryKey;size:191"`
	ReviewID       string    `gorm:"size:191;index"`
	Rating         int       `gorm:"not null"`
	Author         string    `gorm:"size:191"`
	Text           string    `gorm:"type:text"`
	Sentiment      string    `gorm:"size:32"`
	ReplyText      string    `gorm:"type:text"`
	Outcome        string    `gorm:"size:32;index"`
	ResponseTimeMS *int64
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (reviewRow) TableName() string {
	return "reviews"
}

func (r reviewRow) toEvent() event.Event {
	return event.Event{
		CorrelationID:  r.CorrelationID,
		Platform:       event.PlatformGoogleReviews,
		ReviewID:       r.ReviewID,
		Rating:         r.Rating,
		Author:         r.Author,
		Text:           r.Text,
		Sentiment:      event.Sentiment(r.Sentiment),
		ReplyText:      r.ReplyText,
		Outcome:        event.Outcome(r.Outcome),
		ResponseTimeMS: r.ResponseTimeMS,
	}
}

func reviewRowFromEvent(ev event.Event, now time.Time) reviewRow {
	return reviewRow{
		CorrelationID:  ev.CorrelationID,
		ReviewID:       ev.ReviewID,
		Rating:         ev.Rating,
		Author:         ev.Author,
		Text:           ev.Text,
		Sentiment:      string(ev.Sentiment),
		ReplyText:      ev.ReplyText,
		Outcome:        string(ev.Outcome),
		ResponseTimeMS: ev.ResponseTimeMS,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

type errorRow struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	CorrelationID string    `gorm:"size:191;index"`
	Workflow      string    `gorm:"size:191;not null"`
	Node          string    `gorm:"size:191"`
	Message       string    `gorm:"type:text;not null"`
	Payload       string    `gorm:"type:text"`
	OccurredAt    time.Time `gorm:"not null;index"`
}

func (errorRow) TableName() string {
	return "errors"
}

func errorRowFromRecord(rec event.ErrorRecord) errorRow {
	return errorRow{
		CorrelationID: rec.CorrelationID,
		Workflow:      rec.Workflow,
		Node:          rec.Node,
		Message:       rec.Message,
		Payload:       rec.Payload,
		OccurredAt:    rec.OccurredAt,
	}
}
