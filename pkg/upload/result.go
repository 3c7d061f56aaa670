package upload

// Kind identifies which entity a result belongs to.
type Kind string

const (
	// KindMain is a group's main issue.
	KindMain Kind = "main"
	// KindSubtask is a subtask under a group's main issue.
	KindSubtask Kind = "subtask"
)

// Result is the outcome of one creation attempt.
type Result struct {
	GroupID string `json:"group_id"`
	Kind    Kind   `json:"kind"`
	Summary string `json:"summary"`
	Key     string `json:"key,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Failed reports whether the entity could not be created.
func (r Result) Failed() bool {
	return r.Error != ""
}

// Summary aggregates the outcome of one upload run.
type Summary struct {
	Groups          int      `json:"groups"`
	MainCreated     int      `json:"main_created"`
	MainFailed      int      `json:"main_failed"`
	SubtasksCreated int      `json:"subtasks_created"`
	SubtasksFailed  int      `json:"subtasks_failed"`
	Results         []Result `json:"results"`
	Failures        []Result `json:"failures,omitempty"`
}

// OK reports whether every entity was created; a run succeeds only with zero
// failures.
func (s *Summary) OK() bool {
	return s.MainFailed == 0 && s.SubtasksFailed == 0
}

func (s *Summary) record(r Result) {
	s.Results = append(s.Results, r)
	if r.Failed() {
		s.Failures = append(s.Failures, r)
	}

	switch {
	case r.Kind == KindMain && r.Failed():
		s.MainFailed++
	case r.Kind == KindMain:
		s.MainCreated++
	case r.Failed():
		s.SubtasksFailed++
	default:
		s.SubtasksCreated++
	}
}
