package logging

import "testing"

func TestDefaultLoggerDebugGate(t *testing.T) {
	l := NewDefaultLogger("test", false)
	if l.DebugEnabled() {
		t.Fatal("expected debug disabled by default")
	}
	l.SetDebug(true)
	if !l.DebugEnabled() {
		t.Fatal("expected debug enabled after SetDebug(true)")
	}
}

func TestNopLoggerNeverPanics(t *testing.T) {
	l := NewNopLogger()
	l.Debugf("x")
	l.Infof("x")
	l.Warnf("x")
	l.Errorf("x")
	l.SetDebug(true)
	if l.DebugEnabled() {
		t.Fatal("nop logger must never report debug enabled")
	}
}
