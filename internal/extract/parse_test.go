package extract

import (
	"testing"

	"github.com/mediread/vault/internal/entity"
)

const validReport = `{
  "document_type": "medical_test_report",
  "patient_name": "Jane Doe",
  "patient_age": "42",
  "patient_gender": "female",
  "report_date": "2024-01-15",
  "lab_name": "City Lab",
  "doctor_name": null,
  "test_results": [
    {
      "test_name": "Hemoglobin",
      "value": 11.2,
      "unit": "g/dL",
      "reference_range": "13.0-17.0",
      "abnormal_flag": "low"
    }
  ]
}`

func TestParseRecordPlainJSON(t *testing.T) {
	rec := ParseRecord(validReport)
	if rec.DocumentType != entity.DocTypeTestReport {
		t.Fatalf("expected medical_test_report, got %s", rec.DocumentType)
	}
	if rec.TestReport == nil || len(rec.TestReport.TestResults) != 1 {
		t.Fatalf("expected one test result, got %+v", rec.TestReport)
	}
	tr := rec.TestReport.TestResults[0]
	if tr.TestName == nil || *tr.TestName != "Hemoglobin" {
		t.Errorf("expected test name Hemoglobin, got %v", tr.TestName)
	}
	if tr.Value.Number == nil || *tr.Value.Number != 11.2 {
		t.Errorf("expected numeric value 11.2, got %+v", tr.Value)
	}
	if tr.AbnormalFlag == nil || *tr.AbnormalFlag != entity.FlagLow {
		t.Errorf("expected low flag, got %v", tr.AbnormalFlag)
	}
}

func TestParseRecordFencedJSON(t *testing.T) {
	for name, raw := range map[string]string{
		"json fence":  "```json\n" + validReport + "\n```",
		"plain fence": "```\n" + validReport + "\n```",
	} {
		rec := ParseRecord(raw)
		if rec.DocumentType != entity.DocTypeTestReport {
			t.Errorf("%s: expected medical_test_report, got %s", name, rec.DocumentType)
		}
	}
}

func TestParseRecordSurroundedByProse(t *testing.T) {
	raw := "Here is the extracted data:\n" + validReport + "\nLet me know if you need anything else."
	rec := ParseRecord(raw)
	if rec.DocumentType != entity.DocTypeTestReport {
		t.Fatalf("expected medical_test_report, got %s", rec.DocumentType)
	}
}

func TestParseRecordBracesInsideStrings(t *testing.T) {
	raw := `{"document_type": "prescription", "patient_name": "A {B} C", "age": null, "date": null, "doctor_name": null, "hospital_name": null, "medications": []} trailing }`
	rec := ParseRecord(raw)
	if rec.DocumentType != entity.DocTypePrescription {
		t.Fatalf("expected prescription, got %s", rec.DocumentType)
	}
	if rec.Prescription.PatientName == nil || *rec.Prescription.PatientName != "A {B} C" {
		t.Errorf("expected braces preserved inside string, got %v", rec.Prescription.PatientName)
	}
}

func TestParseRecordFallsBackToUnknown(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"prose only":    "I could not find any medical data in this document.",
		"invalid json":  "{not valid json}",
		"wrong tag":     `{"document_type": "invoice", "total": 12}`,
		"missing tag":   `{"patient_name": "Jane"}`,
		"bare array":    `[1, 2, 3]`,
		"truncated obj": `{"document_type": "prescription", "medications": [`,
	}
	for name, raw := range cases {
		rec := ParseRecord(raw)
		if rec.DocumentType != entity.DocTypeUnknown {
			t.Errorf("%s: expected unknown, got %s", name, rec.DocumentType)
		}
		if rec.TestReport != nil || rec.Prescription != nil {
			t.Errorf("%s: unknown record must carry no variant", name)
		}
	}
}

func TestParseRecordDropsFlagWithoutReferenceRange(t *testing.T) {
	raw := `{
		"document_type": "medical_test_report",
		"patient_name": null, "patient_age": null, "patient_gender": null,
		"report_date": null, "lab_name": null, "doctor_name": null,
		"test_results": [
			{"test_name": "TSH", "value": 2.5, "unit": null, "reference_range": null, "abnormal_flag": "high"},
			{"test_name": "Glucose", "value": null, "unit": null, "reference_range": "70-100", "abnormal_flag": "high"}
		]
	}`
	rec := ParseRecord(raw)
	if rec.DocumentType != entity.DocTypeTestReport {
		t.Fatalf("expected medical_test_report, got %s", rec.DocumentType)
	}
	for i, tr := range rec.TestReport.TestResults {
		if tr.AbnormalFlag != nil {
			t.Errorf("result %d: flag must be dropped without value and reference range", i)
		}
	}
}

func TestParseRecordLenientFieldTypes(t *testing.T) {
	raw := `{
		"document_type": "prescription",
		"patient_name": "John", "age": 45, "date": "2024-02-01",
		"doctor_name": null, "hospital_name": null,
		"medications": [
			{"medicine_name": "Metformin", "dosage": 500, "frequency": "twice daily", "duration": null, "instructions": null}
		]
	}`
	rec := ParseRecord(raw)
	if rec.DocumentType != entity.DocTypePrescription {
		t.Fatalf("expected prescription, got %s", rec.DocumentType)
	}
	if rec.Prescription.Age == nil || *rec.Prescription.Age != "45" {
		t.Errorf("expected numeric age coerced to string, got %v", rec.Prescription.Age)
	}
	m := rec.Prescription.Medications[0]
	if m.Dosage == nil || *m.Dosage != "500" {
		t.Errorf("expected numeric dosage coerced to string, got %v", m.Dosage)
	}
}

func TestRecordJSONPrefersBalancedObject(t *testing.T) {
	raw := `{"document_type": "unknown"} {"second": true}`
	b, ok := RecordJSON(raw)
	if !ok {
		t.Fatal("expected a JSON object")
	}
	if string(b) != `{"document_type": "unknown"}` {
		t.Errorf("expected first balanced object, got %s", b)
	}
}
