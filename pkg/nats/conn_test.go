package nats

import (
	"strings"
	"testing"

	"dealdocs-be/pkg/events"
)

func TestEventSubjectsFallUnderStreamWildcard(t *testing.T) {
	base := strings.TrimSuffix(SubjectWildcard, ">")

	for _, eventType := range []string{
		events.TypeDocumentIngested,
		events.TypeDocumentIngestionFailed,
		events.TypeRunCompleted,
		events.TypeRunFailed,
	} {
		subject := subjectPrefix + eventType
		if !strings.HasPrefix(subject, base) {
			t.Errorf("subject %q not covered by stream wildcard %q", subject, SubjectWildcard)
		}
	}
}
