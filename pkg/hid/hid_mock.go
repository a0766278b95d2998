package hid

import (
	"sync"
	"time"
)

// MockDevice is an in-memory Device for tests. Output and feature
// writes are recorded as copies, input reports and feature responses
// are served from queues. All methods are safe for concurrent use.
type MockDevice struct {
	mu sync.Mutex

	info   Info
	closed bool

	// Writes and FeatureSends record every outbound report in order.
	Writes       [][]byte
	FeatureSends [][]byte

	// ReadErr, when set, is returned by Read and ReadTimeout in place
	// of the next queued report.
	ReadErr error

	// WriteErr, when set, is returned by Write after WriteErrAt writes
	// have succeeded. Leaving WriteErrAt zero fails the first write.
	WriteErr   error
	WriteErrAt int

	// FeatureErr, when set, is returned by SendFeatureReport and
	// GetFeatureReport.
	FeatureErr error

	inputs   [][]byte
	features map[byte][]byte
}

func NewMockDevice(info Info) *MockDevice {
	return &MockDevice{
		info:     info,
		features: make(map[byte][]byte),
	}
}

// QueueInput appends a raw input report to be returned by the next
// Read or ReadTimeout call.
func (m *MockDevice) QueueInput(report []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, append([]byte(nil), report...))
}

// SetFeatureResponse installs the buffer returned by GetFeatureReport
// for the given report id. The buffer layout matches the hidapi
// convention, report id first.
func (m *MockDevice) SetFeatureResponse(reportID byte, response []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.features[reportID] = append([]byte(nil), response...)
}

// IOCalls returns how many transport operations have been issued.
func (m *MockDevice) IOCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Writes) + len(m.FeatureSends)
}

func (m *MockDevice) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil && len(m.Writes) >= m.WriteErrAt {
		return 0, m.WriteErr
	}
	m.Writes = append(m.Writes, append([]byte(nil), p...))
	return len(p), nil
}

func (m *MockDevice) Read(p []byte) (int, error) {
	return m.ReadTimeout(p, 0)
}

// ReadTimeout pops the next queued input report. An empty queue reads
// as a timeout: (0, nil).
func (m *MockDevice) ReadTimeout(p []byte, _ time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return 0, m.ReadErr
	}
	if len(m.inputs) == 0 {
		return 0, nil
	}
	next := m.inputs[0]
	m.inputs = m.inputs[1:]
	return copy(p, next), nil
}

func (m *MockDevice) SendFeatureReport(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FeatureErr != nil {
		return 0, m.FeatureErr
	}
	m.FeatureSends = append(m.FeatureSends, append([]byte(nil), p...))
	return len(p), nil
}

func (m *MockDevice) GetFeatureReport(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FeatureErr != nil {
		return 0, m.FeatureErr
	}
	if len(p) == 0 {
		return 0, nil
	}
	resp, ok := m.features[p[0]]
	if !ok {
		return len(p), nil
	}
	return copy(p, resp), nil
}

func (m *MockDevice) Info() Info { return m.info }

func (m *MockDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (m *MockDevice) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
