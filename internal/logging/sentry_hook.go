package logging

import (
	"errors"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

type sentryHub interface {
	CaptureException(exception error) *sentry.EventID
}

// SentryHook forwards log entries of the given levels to sentry.
type SentryHook struct {
	hub    sentryHub
	levels []logrus.Level
}

func NewSentryHook(hub sentryHub, levels []logrus.Level) *SentryHook {
	return &SentryHook{
		hub:    hub,
		levels: levels,
	}
}

func (h *SentryHook) Levels() []logrus.Level {
	return h.levels
}

func (h *SentryHook) Fire(entry *logrus.Entry) error {
	if err, ok := entry.Data[logrus.ErrorKey].(error); ok {
		h.hub.CaptureException(err)
		return nil
	}
	h.hub.CaptureException(errors.New(entry.Message))
	return nil
}
