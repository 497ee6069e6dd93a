// Package snapshot folds persisted documents into the deduplicated,
// source-attributed health snapshot consumed by the chat assistant.
package snapshot

import (
	"strings"

	"github.com/mediread/vault/internal/entity"
)

// Build aggregates medications, latest lab values and abnormal-result
// conditions from all documents. The caller guarantees newest-first
// ordering; dedup is first-wins, so the most recent document's value for
// a given name always wins, never averaged or merged field-by-field.
// Pure function: calling it twice on the same input yields identical output.
func Build(docs []entity.Document) entity.HealthSnapshot {
	snap := entity.HealthSnapshot{
		ActiveConditions:   []string{},
		CurrentMedications: []entity.SourcedMedication{},
		LatestLabs:         []entity.SourcedTestResult{},
	}

	seenMeds := make(map[string]struct{})
	seenLabs := make(map[string]struct{})
	seenConditions := make(map[string]struct{})

	for _, doc := range docs {
		sourceDoc := doc.FileName
		sourceDate := doc.DocumentDate
		if sourceDate == "" {
			sourceDate = doc.UploadedAt
		}

		switch doc.Extracted.DocumentType {
		case entity.DocTypePrescription:
			if doc.Extracted.Prescription == nil {
				continue
			}
			for _, m := range doc.Extracted.Prescription.Medications {
				if m.MedicineName == nil {
					continue
				}
				key := normalizeKey(*m.MedicineName)
				if _, ok := seenMeds[key]; ok {
					continue
				}
				seenMeds[key] = struct{}{}
				snap.CurrentMedications = append(snap.CurrentMedications, entity.SourcedMedication{
					Medication: m,
					SourceDoc:  sourceDoc,
					SourceDate: sourceDate,
				})
			}

		case entity.DocTypeTestReport:
			if doc.Extracted.TestReport == nil {
				continue
			}
			for _, t := range doc.Extracted.TestReport.TestResults {
				if t.TestName == nil {
					continue
				}
				key := normalizeKey(*t.TestName)
				if _, ok := seenLabs[key]; !ok {
					seenLabs[key] = struct{}{}
					snap.LatestLabs = append(snap.LatestLabs, entity.SourcedTestResult{
						TestResult: t,
						SourceDoc:  sourceDoc,
						SourceDate: sourceDate,
					})
				}
				// abnormal results surface as conditions, deduped by exact label
				if t.AbnormalFlag != nil && (*t.AbnormalFlag == entity.FlagHigh || *t.AbnormalFlag == entity.FlagLow) {
					label := *t.TestName + " (" + string(*t.AbnormalFlag) + ")"
					if _, ok := seenConditions[label]; !ok {
						seenConditions[label] = struct{}{}
						snap.ActiveConditions = append(snap.ActiveConditions, label)
					}
				}
			}
		}
	}

	return snap
}

func normalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
