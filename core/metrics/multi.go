package metrics

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordMutation forwards the event to all sinks, returning the first error.
func (m *MultiSink) RecordMutation(ev MutationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordMutation(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordConflicts forwards to the sinks that track conflicts.
func (m *MultiSink) RecordConflicts(evs []ConflictEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ConflictRecorder); ok {
			if err := rec.RecordConflicts(evs); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordExpansion forwards to the sinks that track expansions.
func (m *MultiSink) RecordExpansion(ev ExpansionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ExpansionRecorder); ok {
			if err := rec.RecordExpansion(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes the sinks that hold resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
