package pipeline

// Status is the per-file outcome of a run
type Status int

// Per-file outcomes
const (
	StatusEncrypted Status = iota
	StatusNotEncrypted
	StatusInvalidFile
	StatusDecrypted
	StatusNotDecrypted
)

func (s Status) String() string {
	switch s {
	case StatusEncrypted:
		return "Encrypted"
	case StatusNotEncrypted:
		return "Not Encrypted"
	case StatusInvalidFile:
		return "Invalid File"
	case StatusDecrypted:
		return "Decrypted"
	case StatusNotDecrypted:
		return "Not Decrypted"
	default:
		return "Unknown"
	}
}

// Failed reports whether the status marks a file that could not be processed
func (s Status) Failed() bool {
	return s == StatusNotEncrypted || s == StatusNotDecrypted
}

// Reporter receives one call per file as the run progresses. err is set for
// failed files.
type Reporter interface {
	Report(path string, status Status, err error)
}

type discardReporter struct{}

func (discardReporter) Report(string, Status, error) {}

// FileResult is the outcome recorded for one file
type FileResult struct {
	Path   string
	Status Status
	Err    error
}
