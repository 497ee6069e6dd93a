package entity

import "encoding/json"

// SourcedMedication is a medication annotated with its originating
// document for citation in chat answers.
type SourcedMedication struct {
	Medication
	SourceDoc  string `json:"sourceDoc"`
	SourceDate string `json:"sourceDate"`
}

// UnmarshalJSON decodes the source fields explicitly. The embedded
// Medication has its own unmarshaler, which would otherwise be promoted
// to the outer struct and silently drop sourceDoc/sourceDate.
func (sm *SourcedMedication) UnmarshalJSON(data []byte) error {
	if err := sm.Medication.UnmarshalJSON(data); err != nil {
		return err
	}
	var src struct {
		SourceDoc  string `json:"sourceDoc"`
		SourceDate string `json:"sourceDate"`
	}
	if err := json.Unmarshal(data, &src); err != nil {
		return err
	}
	sm.SourceDoc = src.SourceDoc
	sm.SourceDate = src.SourceDate
	return nil
}

// SourcedTestResult is a test result annotated with its originating document.
type SourcedTestResult struct {
	TestResult
	SourceDoc  string `json:"sourceDoc"`
	SourceDate string `json:"sourceDate"`
}

func (st *SourcedTestResult) UnmarshalJSON(data []byte) error {
	if err := st.TestResult.UnmarshalJSON(data); err != nil {
		return err
	}
	var src struct {
		SourceDoc  string `json:"sourceDoc"`
		SourceDate string `json:"sourceDate"`
	}
	if err := json.Unmarshal(data, &src); err != nil {
		return err
	}
	st.SourceDoc = src.SourceDoc
	st.SourceDate = src.SourceDate
	return nil
}

// HealthSnapshot is the derived, recomputed-on-demand aggregate over all
// documents. It is never persisted. At most one entry per normalized
// medicine/test name; the most recent document wins.
type HealthSnapshot struct {
	ActiveConditions   []string            `json:"activeConditions"`
	CurrentMedications []SourcedMedication `json:"currentMedications"`
	LatestLabs         []SourcedTestResult `json:"latestLabs"`
}
