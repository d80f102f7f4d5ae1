// Package blog provides the small audit-logging surface the certificate
// signer and validator call into, modelled on the teacher's
// github.com/letsencrypt/boulder/log.AuditLogger: Notice/Warning for
// routine events, AuditErr for events an operator should be able to grep
// for after the fact.
package blog

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

func sprintf(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

// Logger is the surface the certificate core depends on. Production code
// gets one from New(); tests get one from NewMock() and can inspect
// captured entries without touching the real log stream.
type Logger interface {
	Notice(msg string)
	Noticef(format string, args ...interface{})
	Warning(msg string)
	Warningf(format string, args ...interface{})
	AuditErr(msg string)
	AuditErrf(format string, args ...interface{})
}

type logger struct {
	entry *logrus.Entry
}

// New returns a Logger that writes structured entries tagged with the
// given component name, e.g. "certsign" or "certverify".
func New(component string) Logger {
	l := logrus.New()
	return &logger{entry: l.WithField("component", component)}
}

func (l *logger) Notice(msg string)  { l.entry.Info(msg) }
func (l *logger) Warning(msg string) { l.entry.Warn(msg) }
func (l *logger) AuditErr(msg string) {
	l.entry.WithField("audit", true).Error(msg)
}

func (l *logger) Noticef(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *logger) Warningf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }
func (l *logger) AuditErrf(format string, args ...interface{}) {
	l.entry.WithField("audit", true).Errorf(format, args...)
}

// Mock captures log entries for assertion in tests instead of writing them.
type Mock struct {
	Notices   []string
	Warnings  []string
	AuditErrs []string
}

// NewMock returns a Logger suitable for tests that want to assert on what
// was logged, rather than on stdout/stderr content.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Notice(msg string)            { m.Notices = append(m.Notices, msg) }
func (m *Mock) Warning(msg string)           { m.Warnings = append(m.Warnings, msg) }
func (m *Mock) AuditErr(msg string)          { m.AuditErrs = append(m.AuditErrs, msg) }
func (m *Mock) Noticef(f string, a ...interface{}) {
	m.Notices = append(m.Notices, sprintf(f, a...))
}
func (m *Mock) Warningf(f string, a ...interface{}) {
	m.Warnings = append(m.Warnings, sprintf(f, a...))
}
func (m *Mock) AuditErrf(f string, a ...interface{}) {
	m.AuditErrs = append(m.AuditErrs, sprintf(f, a...))
}
